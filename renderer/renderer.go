package renderer

import "github.com/ByLCY/text2image/config"

// Renderer 将文本绘制为单张 JPEG 图片并写入临时文件。
// Render 返回生成文件的绝对路径；只有编码或写文件失败时才返回错误。
type Renderer interface {
	Render(text string, opts config.Options) (string, error)
}
