package layout

// 该文件定义排版结果，供排版、绘制与调试 JSON 共用。

import "github.com/ByLCY/text2image/segment"

// Result 保存一次排版的全部行与画布尺寸（实际像素）。
type Result struct {
	Geometry Geometry     `json:"geometry"`
	Lines    []RenderLine `json:"lines"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
}

// RenderLine 表示折行后的一行；Blank 行来自只含空白的源行，不含片段。
type RenderLine struct {
	Items []Item `json:"items,omitempty"`
	Blank bool   `json:"blank,omitempty"`
}

// Width 返回该行片段宽度之和。
func (l RenderLine) Width() int {
	w := 0
	for _, it := range l.Items {
		w += it.Width
	}
	return w
}

// Text 返回该行的全部文本，便于调试与测试。
func (l RenderLine) Text() string {
	s := ""
	for _, it := range l.Items {
		s += it.Segment.Text
	}
	return s
}

// Item 是行内的一个片段及其测量宽度。
type Item struct {
	Segment segment.Segment `json:"segment"`
	Width   int             `json:"width"`
}
