package segment

// Segment 是排版的最小单位：一段需要一起绘制的文本。
type Segment struct {
	Text string `json:"text"`
	// Emoji 为 true 时 Text 是完整的 emoji 簇，以位图绘制且不可再拆分。
	Emoji bool `json:"emoji,omitempty"`
	// NoWrap 为 true 时 Text 是 ≥3 个相同分隔符组成的装饰线，换行时整体移动。
	NoWrap bool `json:"noWrap,omitempty"`
}

// Atomic 报告该片段在测量与折行时是否必须整体处理。
func (s Segment) Atomic() bool { return s.Emoji || s.NoWrap }

// separatorRunMin 是分隔符连续出现多少次后视为不可折行的装饰线。
const separatorRunMin = 3

// separators 为装饰分隔符字母表。
const separators = "━─═—_-~·•"

// IsSeparator reports whether r belongs to the decorative separator alphabet.
func IsSeparator(r rune) bool {
	for _, s := range separators {
		if s == r {
			return true
		}
	}
	return false
}

// Split 将单行文本拆分为 emoji、装饰线与普通文本片段，保持原有顺序。
// 换行符由调用方处理；空字符串返回 nil。
func Split(line string) []Segment {
	if line == "" {
		return nil
	}
	var out []Segment
	runes := []rune(line)
	start := 0
	for start < len(runes) {
		emoji := IsEmoji(runes[start])
		end := start + 1
		for end < len(runes) && IsEmoji(runes[end]) == emoji {
			end++
		}
		if emoji {
			out = append(out, Segment{Text: string(runes[start:end]), Emoji: true})
		} else {
			out = appendRuns(out, runes[start:end])
		}
		start = end
	}
	return out
}

// appendRuns 按相同字符的连续段拆分非 emoji 文本。
func appendRuns(out []Segment, runes []rune) []Segment {
	i := 0
	for i < len(runes) {
		ch := runes[i]
		j := i + 1
		for j < len(runes) && runes[j] == ch {
			j++
		}
		out = append(out, Segment{
			Text:   string(runes[i:j]),
			NoWrap: j-i >= separatorRunMin && IsSeparator(ch),
		})
		i = j
	}
	return out
}
