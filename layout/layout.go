package layout

import (
	"strings"

	"github.com/ByLCY/text2image/segment"
)

// Build 将文本按源行拆分、分段并贪心折行，返回各行与画布尺寸。
// 每行至少放入一个单位（字符/emoji/装饰线），超宽单位独占一行并允许溢出。
func Build(text string, geo Geometry, m Measurer) *Result {
	res := &Result{Geometry: geo, Width: geo.Width}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			res.Lines = append(res.Lines, RenderLine{Blank: true})
			continue
		}
		res.Lines = append(res.Lines, wrapLine(segment.Split(line), geo, m)...)
	}
	res.Height = geo.CanvasHeight(res.Lines)
	return res
}

// rowBuilder 累积当前行，并在放不下时换行。
type rowBuilder struct {
	limit int
	x     int
	items []Item
	rows  []RenderLine
}

func (b *rowBuilder) place(seg segment.Segment, width int) {
	if b.x > 0 && b.x+width > b.limit {
		b.flush()
	}
	b.items = append(b.items, Item{Segment: seg, Width: width})
	b.x += width
}

func (b *rowBuilder) flush() {
	if len(b.items) == 0 {
		return
	}
	b.rows = append(b.rows, RenderLine{Items: b.items})
	b.items = nil
	b.x = 0
}

func wrapLine(segs []segment.Segment, geo Geometry, m Measurer) []RenderLine {
	b := &rowBuilder{limit: geo.TextWidth}
	for _, seg := range segs {
		switch {
		case seg.Emoji:
			b.place(seg, geo.EmojiSize)
		case seg.NoWrap:
			b.place(seg, m.Advance(seg.Text))
		default:
			for _, r := range seg.Text {
				ch := string(r)
				b.place(segment.Segment{Text: ch}, m.Advance(ch))
			}
		}
	}
	b.flush()
	return b.rows
}
