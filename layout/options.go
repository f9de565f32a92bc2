package layout

// Measurer 测量文本在当前字号下的水平宽度（实际像素，取整）。
type Measurer interface {
	Advance(s string) int
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(s string) int

// Advance implements Measurer.
func (f MeasurerFunc) Advance(s string) int { return f(s) }
