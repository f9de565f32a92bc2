package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	opts := FromMap(nil, nil)
	if opts.ImageWidth != 375 || opts.ImageScale != 2 || opts.Padding != 24 || opts.FontSize != 24 {
		t.Fatalf("unexpected numeric defaults: %#v", opts)
	}
	if opts.LineHeight != 1.6 {
		t.Fatalf("line height default mismatch: %g", opts.LineHeight)
	}
	if opts.BgColor != (Color{255, 255, 255}) || opts.TextColor != (Color{0x33, 0x33, 0x33}) {
		t.Fatalf("color defaults mismatch: bg=%v text=%v", opts.BgColor, opts.TextColor)
	}
	if !opts.EnableRender || opts.MaxConcurrent != 3 || opts.EmojiTimeout != 5*time.Second {
		t.Fatalf("host defaults mismatch: %#v", opts)
	}
}

func TestFromMapCoercesStrings(t *testing.T) {
	opts := FromMap(map[string]any{
		"image_width":   "400",
		"image_scale":   3.0,
		"padding":       "10.0",
		"font_size":     int64(18),
		"line_height":   "1.25",
		"bg_color":      "000",
		"text_color":    "#ABCDEF",
		"enable_render": "off",
		"emoji_timeout": "0.5",
		"unknown_key":   "ignored",
	}, nil)
	if opts.ImageWidth != 400 || opts.ImageScale != 3 || opts.Padding != 10 || opts.FontSize != 18 {
		t.Fatalf("numeric coercion failed: %#v", opts)
	}
	if opts.LineHeight != 1.25 {
		t.Fatalf("line height coercion failed: %g", opts.LineHeight)
	}
	if opts.BgColor != (Color{0, 0, 0}) || opts.TextColor != (Color{0xab, 0xcd, 0xef}) {
		t.Fatalf("color coercion failed: bg=%v text=%v", opts.BgColor, opts.TextColor)
	}
	if opts.EnableRender {
		t.Fatalf("enable_render=off should disable rendering")
	}
	if opts.EmojiTimeout != 500*time.Millisecond {
		t.Fatalf("emoji timeout coercion failed: %v", opts.EmojiTimeout)
	}
}

// TestFromMapFallsBackOnMalformed 验证格式错误的值回退为默认值而不是报错。
func TestFromMapFallsBackOnMalformed(t *testing.T) {
	opts := FromMap(map[string]any{
		"image_width": "wide",
		"image_scale": 0,
		"padding":     -3,
		"line_height": "abc",
		"bg_color":    "#12",
		"text_color":  "zzzzzz",
	}, nil)
	def := Default()
	if opts.ImageWidth != def.ImageWidth || opts.ImageScale != def.ImageScale || opts.Padding != def.Padding {
		t.Fatalf("expected numeric defaults, got %#v", opts)
	}
	if opts.LineHeight != def.LineHeight {
		t.Fatalf("expected default line height, got %g", opts.LineHeight)
	}
	if opts.BgColor != def.BgColor || opts.TextColor != def.TextColor {
		t.Fatalf("expected default colors, got bg=%v text=%v", opts.BgColor, opts.TextColor)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#fff":      {255, 255, 255},
		"333333":    {0x33, 0x33, 0x33},
		"#102030ff": {0x10, 0x20, 0x30},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseColor("#ggg"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if got := (Color{0xab, 0x01, 0xff}).Hex(); got != "#ab01ff" {
		t.Fatalf("Hex() = %s", got)
	}
}

const sampleConfig = `
# text2image 配置
image_width = 420
image_scale: 3
line_height = 1.5
bg_color = #f0f0f0
text_color: "#222"
emoji_base_url = "https://example.com/emoji/"
enable_render = true // 行尾注释
`

func TestParseConfigFile(t *testing.T) {
	m, err := ParseString(sampleConfig)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if m["image_width"] != "420" || m["image_scale"] != "3" {
		t.Fatalf("unexpected raw values: %#v", m)
	}
	if m["bg_color"] != "#f0f0f0" || m["text_color"] != "#222" {
		t.Fatalf("unexpected color values: %#v", m)
	}

	opts := FromMap(m, nil)
	if opts.ImageWidth != 420 || opts.ImageScale != 3 || opts.LineHeight != 1.5 {
		t.Fatalf("unexpected options: %#v", opts)
	}
	if opts.BgColor != (Color{0xf0, 0xf0, 0xf0}) || opts.TextColor != (Color{0x22, 0x22, 0x22}) {
		t.Fatalf("unexpected colors: bg=%v text=%v", opts.BgColor, opts.TextColor)
	}
	if opts.EmojiBaseURL != "https://example.com/emoji" {
		t.Fatalf("trailing slash should be trimmed: %s", opts.EmojiBaseURL)
	}
	if !opts.EnableRender {
		t.Fatalf("enable_render should be true")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseString("image_width 12 13"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text2image.conf")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if opts.ImageWidth != 420 {
		t.Fatalf("unexpected width %d", opts.ImageWidth)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
