package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Recognised keys.
const (
	KeyImageWidth    = "image_width"
	KeyImageScale    = "image_scale"
	KeyPadding       = "padding"
	KeyFontSize      = "font_size"
	KeyLineHeight    = "line_height"
	KeyBgColor       = "bg_color"
	KeyTextColor     = "text_color"
	KeyFontDir       = "font_dir"
	KeyFontFile      = "font_file"
	KeyEmojiBaseURL  = "emoji_base_url"
	KeyEmojiTimeout  = "emoji_timeout"
	KeyEnableRender  = "enable_render"
	KeyCharThreshold = "render_char_threshold"
	KeyMaxConcurrent = "max_concurrent"
)

// Defaults.
const (
	DefaultImageWidth    = 375
	DefaultImageScale    = 2
	DefaultPadding       = 24
	DefaultFontSize      = 24
	DefaultLineHeight    = 1.6
	DefaultBgColor       = "#ffffff"
	DefaultTextColor     = "#333333"
	DefaultFontDir       = "ziti"
	DefaultFontFile      = "Source_Han_Serif_SC_Light_Light.otf"
	DefaultEmojiBaseURL  = "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/72x72"
	DefaultEmojiTimeout  = 5 * time.Second
	DefaultMaxConcurrent = 3
)

// Options 是一次渲染读取的全部配置。宽度、边距与字号均为逻辑像素，
// 实际绘制时乘以 ImageScale。
type Options struct {
	ImageWidth int     `json:"imageWidth"`
	ImageScale int     `json:"imageScale"`
	Padding    int     `json:"padding"`
	FontSize   int     `json:"fontSize"`
	LineHeight float64 `json:"lineHeight"`
	BgColor    Color   `json:"bgColor"`
	TextColor  Color   `json:"textColor"`

	// 以下在构造渲染器时读取。
	FontDir      string        `json:"fontDir"`
	FontFile     string        `json:"fontFile"`
	EmojiBaseURL string        `json:"emojiBaseUrl"`
	EmojiTimeout time.Duration `json:"emojiTimeout"`

	// 宿主侧触发策略。
	EnableRender  bool `json:"enableRender"`
	CharThreshold int  `json:"charThreshold"`
	MaxConcurrent int  `json:"maxConcurrent"`
}

// Default 返回全部默认值。
func Default() Options {
	return Options{
		ImageWidth:    DefaultImageWidth,
		ImageScale:    DefaultImageScale,
		Padding:       DefaultPadding,
		FontSize:      DefaultFontSize,
		LineHeight:    DefaultLineHeight,
		BgColor:       MustColor(DefaultBgColor),
		TextColor:     MustColor(DefaultTextColor),
		FontDir:       DefaultFontDir,
		FontFile:      DefaultFontFile,
		EmojiBaseURL:  DefaultEmojiBaseURL,
		EmojiTimeout:  DefaultEmojiTimeout,
		EnableRender:  true,
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// FromMap 从扁平的键值表构造配置。未知键忽略，缺失键使用默认值，
// 格式错误或越界的值回退到默认值并记录警告，不会返回错误。
func FromMap(m map[string]any, logger *zap.Logger) Options {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := coercer{m: m, logger: logger}
	def := Default()
	opts := def

	opts.ImageWidth = c.intValue(KeyImageWidth, def.ImageWidth, positive)
	opts.ImageScale = c.intValue(KeyImageScale, def.ImageScale, positive)
	opts.Padding = c.intValue(KeyPadding, def.Padding, nonNegative)
	opts.FontSize = c.intValue(KeyFontSize, def.FontSize, positive)
	opts.LineHeight = c.floatValue(KeyLineHeight, def.LineHeight)
	opts.BgColor = c.colorValue(KeyBgColor, def.BgColor)
	opts.TextColor = c.colorValue(KeyTextColor, def.TextColor)

	opts.FontDir = c.stringValue(KeyFontDir, def.FontDir)
	opts.FontFile = c.stringValue(KeyFontFile, def.FontFile)
	opts.EmojiBaseURL = strings.TrimRight(c.stringValue(KeyEmojiBaseURL, def.EmojiBaseURL), "/")
	if secs := c.floatValue(KeyEmojiTimeout, def.EmojiTimeout.Seconds()); secs > 0 {
		opts.EmojiTimeout = time.Duration(secs * float64(time.Second))
	}

	opts.EnableRender = c.boolValue(KeyEnableRender, def.EnableRender)
	opts.CharThreshold = c.intValue(KeyCharThreshold, def.CharThreshold, nonNegative)
	opts.MaxConcurrent = c.intValue(KeyMaxConcurrent, def.MaxConcurrent, positive)
	return opts
}

// Map 是 FromMap 的逆操作，用于调试输出。
func (o Options) Map() map[string]any {
	return map[string]any{
		KeyImageWidth:    o.ImageWidth,
		KeyImageScale:    o.ImageScale,
		KeyPadding:       o.Padding,
		KeyFontSize:      o.FontSize,
		KeyLineHeight:    o.LineHeight,
		KeyBgColor:       o.BgColor.Hex(),
		KeyTextColor:     o.TextColor.Hex(),
		KeyFontDir:       o.FontDir,
		KeyFontFile:      o.FontFile,
		KeyEmojiBaseURL:  o.EmojiBaseURL,
		KeyEmojiTimeout:  o.EmojiTimeout.Seconds(),
		KeyEnableRender:  o.EnableRender,
		KeyCharThreshold: o.CharThreshold,
		KeyMaxConcurrent: o.MaxConcurrent,
	}
}

func positive(n int) bool    { return n > 0 }
func nonNegative(n int) bool { return n >= 0 }

type coercer struct {
	m      map[string]any
	logger *zap.Logger
}

func (c coercer) warn(key string, val any, err error) {
	c.logger.Warn("配置值无效，使用默认值", zap.String("key", key), zap.Any("value", val), zap.Error(err))
}

func (c coercer) intValue(key string, def int, valid func(int) bool) int {
	val, ok := c.m[key]
	if !ok || val == nil {
		return def
	}
	n, err := toInt(val)
	if err == nil && !valid(n) {
		err = fmt.Errorf("%d 超出范围", n)
	}
	if err != nil {
		c.warn(key, val, err)
		return def
	}
	return n
}

func (c coercer) floatValue(key string, def float64) float64 {
	val, ok := c.m[key]
	if !ok || val == nil {
		return def
	}
	f, err := toFloat(val)
	if err == nil && !(f > 0) {
		err = fmt.Errorf("%g 超出范围", f)
	}
	if err != nil {
		c.warn(key, val, err)
		return def
	}
	return f
}

func (c coercer) colorValue(key string, def Color) Color {
	val, ok := c.m[key]
	if !ok || val == nil {
		return def
	}
	col, err := ParseColor(fmt.Sprint(val))
	if err != nil {
		c.warn(key, val, err)
		return def
	}
	return col
}

func (c coercer) stringValue(key, def string) string {
	val, ok := c.m[key]
	if !ok || val == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(val))
	if s == "" {
		return def
	}
	return s
}

func (c coercer) boolValue(key string, def bool) bool {
	val, ok := c.m[key]
	if !ok || val == nil {
		return def
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		default:
			return false
		}
	default:
		f, err := toFloat(val)
		if err != nil {
			c.warn(key, val, err)
			return def
		}
		return f != 0
	}
}

func toInt(val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%v 不是有效数字", v)
		}
		return int(v), nil
	}
	f, err := toFloat(val)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toFloat(val any) (float64, error) {
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("无法解析数字 %q: %w", v, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("不支持的类型 %T", val)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v 不是有效数字", val)
	}
	return f, nil
}
