package glyph

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/text2image/fonts"
)

// Metrics 是字体在实际像素下的上升部与下降部。
type Metrics struct {
	Ascent  int `json:"ascent"`
	Descent int `json:"descent"`
}

// Height 返回用于垂直居中的字框高度。
func (m Metrics) Height() int { return m.Ascent + m.Descent }

// Face is a font instance at one real pixel size. It is shared by all
// renders that use the same size.
type Face struct {
	src     *FontSource
	size    float64
	face    *canvas.FontFace
	metrics Metrics
}

// Size returns the pixel size of the face.
func (f *Face) Size() float64 { return f.size }

// Metrics returns ascent and descent in pixels.
func (f *Face) Metrics() Metrics { return f.metrics }

// Advance returns the horizontal advance of s in whole pixels.
func (f *Face) Advance(s string) int {
	f.src.shapeMu.Lock()
	defer f.src.shapeMu.Unlock()
	return int(f.face.TextWidth(s))
}

// TextLine shapes s as a single left-aligned line in the given color.
func (f *Face) TextLine(s string, col color.Color) *canvas.Text {
	f.src.shapeMu.Lock()
	defer f.src.shapeMu.Unlock()
	face := f.src.family.Face(PxToPt(f.size), col, canvas.FontRegular, canvas.FontNormal)
	return canvas.NewTextLine(face, s, canvas.Left)
}

// FontSource loads a single font file and caches one Face per pixel size.
// If the file cannot be loaded the embedded fallback font is used instead.
type FontSource struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	family   *canvas.FontFamily
	fallback bool
	faces    map[float64]*Face

	// shaping goes through buffers owned by the font family
	shapeMu sync.Mutex
}

// NewFontSource creates a source for the font file at path. The file is read
// lazily on first use.
func NewFontSource(path string, logger *zap.Logger) *FontSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FontSource{
		path:   path,
		logger: logger,
		faces:  map[float64]*Face{},
	}
}

// Face 返回指定像素字号的字体实例，相同字号复用缓存。
func (s *FontSource) Face(size float64) (*Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if face, ok := s.faces[size]; ok {
		return face, nil
	}
	family, err := s.ensureFamily()
	if err != nil {
		return nil, err
	}

	s.shapeMu.Lock()
	cf := family.Face(PxToPt(size), canvas.Black, canvas.FontRegular, canvas.FontNormal)
	m := cf.Metrics()
	s.shapeMu.Unlock()

	face := &Face{
		src:  s,
		size: size,
		face: cf,
		metrics: Metrics{
			Ascent:  int(math.Round(m.Ascent)),
			Descent: int(math.Round(m.Descent)),
		},
	}
	s.faces[size] = face
	s.logger.Debug("字体实例已缓存", zap.Float64("size", size), zap.Int("ascent", face.metrics.Ascent), zap.Int("descent", face.metrics.Descent))
	return face, nil
}

// UsingFallback reports whether the embedded font replaced the configured one.
func (s *FontSource) UsingFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

func (s *FontSource) ensureFamily() (*canvas.FontFamily, error) {
	if s.family != nil {
		return s.family, nil
	}

	family := canvas.NewFontFamily("text2image")
	data, err := fonts.Load(s.path)
	if err == nil {
		err = family.LoadFont(data, 0, canvas.FontRegular)
	}
	if err == nil {
		s.logger.Info("字体已加载", zap.String("path", s.path))
		s.family = family
		return family, nil
	}

	s.logger.Warn("字体加载失败，使用内置字体", zap.String("path", s.path), zap.String("fallback", fonts.FallbackName), zap.Error(err))
	family = canvas.NewFontFamily("text2image-fallback")
	if fbErr := family.LoadFont(fonts.Fallback(), 0, canvas.FontRegular); fbErr != nil {
		return nil, fmt.Errorf("加载内置字体失败: %w", fbErr)
	}
	s.family = family
	s.fallback = true
	return family, nil
}

// Exclusive runs fn while holding the lock that guards the shared font
// buffers. Rasterising text built from this source's faces must go through it.
func (s *FontSource) Exclusive(fn func()) {
	s.shapeMu.Lock()
	defer s.shapeMu.Unlock()
	fn()
}
