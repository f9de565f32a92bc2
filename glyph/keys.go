package glyph

import (
	"fmt"
	"strings"
)

// keyBuilder derives one lookup key from an emoji cluster; "" means no key.
type keyBuilder func(emoji string) string

// keyBuilders are tried in order, first success wins.
var keyBuilders = []keyBuilder{
	strippedKey,
	fullKey,
	baseKey,
}

func isVariationSelector(r rune) bool { return r == 0xFE0E || r == 0xFE0F }

func stripVariationSelectors(s string) string {
	return strings.Map(func(r rune) rune {
		if isVariationSelector(r) {
			return -1
		}
		return r
	}, s)
}

// hexKey joins code points as hyphen-separated lowercase hex.
func hexKey(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

func strippedKey(emoji string) string { return hexKey(stripVariationSelectors(emoji)) }

func fullKey(emoji string) string { return hexKey(emoji) }

func baseKey(emoji string) string {
	for _, r := range stripVariationSelectors(emoji) {
		return fmt.Sprintf("%x", r)
	}
	return ""
}

// CandidateKeys 返回按优先级排列、去重后的全部查找键。
func CandidateKeys(emoji string) []string {
	var keys []string
	seen := map[string]bool{}
	for _, build := range keyBuilders {
		key := build(emoji)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}
