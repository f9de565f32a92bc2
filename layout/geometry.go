package layout

import "github.com/ByLCY/text2image/config"

// emojiScale 是 emoji 边长相对字号的倍数。
const emojiScale = 1.1

// Geometry 是把逻辑配置乘以缩放倍数后的实际像素尺寸。
type Geometry struct {
	Scale      int `json:"scale"`
	Width      int `json:"width"`
	Padding    int `json:"padding"`
	FontSize   int `json:"fontSize"`
	EmojiSize  int `json:"emojiSize"`
	TextWidth  int `json:"textWidth"`
	LineHeight int `json:"lineHeight"`
}

// NewGeometry 根据配置计算实际像素尺寸；小数部分一律截断。
func NewGeometry(opts config.Options) Geometry {
	scale := opts.ImageScale
	fontSize := opts.FontSize * scale
	g := Geometry{
		Scale:      scale,
		Width:      opts.ImageWidth * scale,
		Padding:    opts.Padding * scale,
		FontSize:   fontSize,
		EmojiSize:  int(float64(fontSize) * emojiScale),
		LineHeight: int(float64(fontSize) * opts.LineHeight),
	}
	g.TextWidth = g.Width - 2*g.Padding
	return g
}

// RowHeight 返回一行占用的高度：空行为正常行高的一半。
func (g Geometry) RowHeight(l RenderLine) int {
	if l.Blank {
		return g.LineHeight / 2
	}
	return g.LineHeight
}

// CanvasHeight 返回上下边距加上各行高度之和。
func (g Geometry) CanvasHeight(lines []RenderLine) int {
	h := 2 * g.Padding
	for _, l := range lines {
		h += g.RowHeight(l)
	}
	return h
}

// Center 返回高度为 inner 的内容在高度为 outer 的行内垂直居中时的上偏移（向下取整）。
func Center(outer, inner int) int {
	d := outer - inner
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}
