package glyph

// canvas 以毫米为长度单位、以点为字号单位。这里按 1mm = 1px 栅格化，
// 所以像素值可以直接作为 canvas 坐标使用，只有字号需要换算。

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// PxToPt 将实际像素字号转换为 canvas 使用的点数。
func PxToPt(px float64) float64 { return px * MmToPt }

// PtToPx 是 PxToPt 的逆运算。
func PtToPx(pt float64) float64 { return pt * PtToMm }
