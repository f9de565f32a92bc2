package fonts

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font/gofont/goregular"
)

// FallbackName 是内置字体在日志中的名称。
const FallbackName = "embed:goregular"

// Resolve 返回字体目录下指定文件的路径；name 为绝对路径时原样返回。
func Resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Load 读取字体文件的字节数据。
func Load(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("字体路径为空")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("字体文件 %s 为空", path)
	}
	return data, nil
}

// Fallback 返回内置的 Go Regular 字体，保证在字体缺失时仍可渲染。
func Fallback() []byte {
	return goregular.TTF
}
