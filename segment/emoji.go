package segment

import "sort"

// runeRange is an inclusive code point range.
type runeRange struct {
	lo, hi rune
}

// emojiRanges must stay sorted and non-overlapping; IsEmoji binary-searches it.
// Joiner, variation selectors, skin tones and tag characters are included so
// that composed sequences form a single run.
var emojiRanges = []runeRange{
	{0x200D, 0x200D},   // zero width joiner
	{0x2300, 0x23FF},   // misc technical
	{0x2600, 0x27BF},   // misc symbols, dingbats
	{0x2B50, 0x2B55},   // stars, circles
	{0xFE00, 0xFE0F},   // variation selectors
	{0x1F000, 0x1F0FF}, // mahjong, domino, cards
	{0x1F1E0, 0x1F1FF}, // regional indicators
	{0x1F300, 0x1F5FF}, // pictographs, skin tones
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA00, 0x1FA6F}, // chess
	{0x1FA70, 0x1FAFF}, // symbols extended-A
	{0xE0020, 0xE007F}, // tags
}

// IsEmoji reports whether r is classified as part of an emoji run.
func IsEmoji(r rune) bool {
	i := sort.Search(len(emojiRanges), func(i int) bool { return emojiRanges[i].hi >= r })
	return i < len(emojiRanges) && emojiRanges[i].lo <= r
}
