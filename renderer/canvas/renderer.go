package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/text2image/config"
	"github.com/ByLCY/text2image/fonts"
	"github.com/ByLCY/text2image/glyph"
	"github.com/ByLCY/text2image/layout"
	"github.com/ByLCY/text2image/renderer"
)

// DefaultQuality 是 JPEG 编码质量。
const DefaultQuality = 80

// filePrefix 是生成文件名的前缀。
const filePrefix = "text2img_"

// BitmapSource 提供 emoji 位图；找不到时返回 nil，调用方留出空白。
type BitmapSource interface {
	Image(text string, size int) *image.RGBA
}

// Options configures the canvas renderer.
type Options struct {
	// Emoji overrides the bitmap source. When nil, one source per lookup
	// endpoint is created from the render options, all sharing one cache.
	Emoji BitmapSource
	// TempDir receives the produced files. Empty means os.TempDir().
	TempDir string
	// Quality is the JPEG quality; zero means DefaultQuality.
	Quality int
	Logger  *zap.Logger
}

// Renderer draws text into a JPEG via github.com/tdewolff/canvas.
// Font faces and emoji bitmaps are cached per instance; a Renderer is safe
// for concurrent use.
type Renderer struct {
	emoji   BitmapSource
	tempDir string
	quality int
	logger  *zap.Logger

	mu      sync.Mutex
	fonts   map[string]*glyph.FontSource
	sources map[string]*glyph.EmojiSource
	bitmaps *glyph.BitmapCache
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		emoji:   opts.Emoji,
		tempDir: opts.TempDir,
		quality: opts.Quality,
		logger:  opts.Logger,
		fonts:   map[string]*glyph.FontSource{},
		sources: map[string]*glyph.EmojiSource{},
		bitmaps: glyph.NewBitmapCache(),
	}
	if r.tempDir == "" {
		r.tempDir = os.TempDir()
	}
	if r.quality <= 0 || r.quality > 100 {
		r.quality = DefaultQuality
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Render 绘制文本并写入临时目录下唯一命名的 JPEG 文件，返回其绝对路径。
func (r *Renderer) Render(text string, opts config.Options) (string, error) {
	data, err := r.RenderBytes(text, opts)
	if err != nil {
		return "", err
	}
	return r.persist(data)
}

// RenderBytes 绘制文本并返回 JPEG 编码后的字节。
func (r *Renderer) RenderBytes(text string, opts config.Options) ([]byte, error) {
	img, _, err := r.RenderImage(text, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("JPEG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Layout 按配置测量并折行，不进行绘制。
func (r *Renderer) Layout(text string, opts config.Options) (*layout.Result, error) {
	res, _, _, err := r.layout(text, opts)
	return res, err
}

// RenderImage 返回绘制完成的不透明 RGBA 图像与对应的排版结果。
func (r *Renderer) RenderImage(text string, opts config.Options) (*image.RGBA, *layout.Result, error) {
	start := time.Now()
	res, src, face, err := r.layout(text, opts)
	if err != nil {
		return nil, nil, err
	}
	geo := res.Geometry

	c := canvas.New(float64(res.Width), float64(res.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与排版一致：左上角为原点，y 向下

	var marks []emojiMark
	metrics := face.Metrics()
	textTop := layout.Center(geo.LineHeight, metrics.Height())
	emojiTop := layout.Center(geo.LineHeight, geo.EmojiSize)

	y := geo.Padding
	for _, line := range res.Lines {
		x := geo.Padding
		for _, it := range line.Items {
			if it.Segment.Emoji {
				marks = append(marks, emojiMark{text: it.Segment.Text, x: x, y: y + emojiTop})
			} else {
				baseline := float64(y + textTop + metrics.Ascent)
				ctx.DrawText(float64(x), baseline, face.TextLine(it.Segment.Text, opts.TextColor))
			}
			x += it.Width
		}
		y += geo.RowHeight(line)
	}

	var ink *image.RGBA
	src.Exclusive(func() {
		ink = rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	})

	bounds := image.Rect(0, 0, res.Width, res.Height)
	out := image.NewRGBA(bounds)
	xdraw.Draw(out, bounds, image.NewUniform(opts.BgColor), image.Point{}, xdraw.Src)
	xdraw.Draw(out, bounds, ink, ink.Bounds().Min, xdraw.Over)

	emoji := r.emojiSource(opts)
	for _, m := range marks {
		bmp := emoji.Image(m.text, geo.EmojiSize)
		if bmp == nil {
			continue
		}
		dst := image.Rect(m.x, m.y, m.x+geo.EmojiSize, m.y+geo.EmojiSize)
		xdraw.Draw(out, dst, bmp, bmp.Bounds().Min, xdraw.Over)
	}

	r.logger.Debug("文本已绘制",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int("rows", len(res.Lines)),
		zap.Int("emoji", len(marks)),
		zap.Duration("elapsed", time.Since(start)))
	return out, res, nil
}

type emojiMark struct {
	text string
	x, y int
}

func (r *Renderer) layout(text string, opts config.Options) (*layout.Result, *glyph.FontSource, *glyph.Face, error) {
	geo := layout.NewGeometry(opts)
	src := r.fontSource(fonts.Resolve(opts.FontDir, opts.FontFile))
	face, err := src.Face(float64(geo.FontSize))
	if err != nil {
		return nil, nil, nil, err
	}
	return layout.Build(text, geo, face), src, face, nil
}

func (r *Renderer) fontSource(path string) *glyph.FontSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.fonts[path]; ok {
		return src
	}
	src := glyph.NewFontSource(path, r.logger)
	r.fonts[path] = src
	return src
}

func (r *Renderer) emojiSource(opts config.Options) BitmapSource {
	if r.emoji != nil {
		return r.emoji
	}
	key := opts.EmojiBaseURL + "|" + opts.EmojiTimeout.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.sources[key]; ok {
		return src
	}
	eo := glyph.EmojiOptions{
		Timeout: opts.EmojiTimeout,
		Cache:   r.bitmaps,
		Logger:  r.logger,
	}
	if opts.EmojiBaseURL != "" {
		eo.Fetcher = glyph.NewHTTPFetcher(opts.EmojiBaseURL, nil)
	}
	src := glyph.NewEmojiSource(eo)
	r.sources[key] = src
	return src
}

// persist 以独占方式创建唯一命名的文件；写入失败时删除残留文件。
func (r *Renderer) persist(data []byte) (string, error) {
	dir, err := filepath.Abs(r.tempDir)
	if err != nil {
		return "", fmt.Errorf("解析临时目录失败: %w", err)
	}
	path := filepath.Join(dir, filePrefix+uuid.NewString()+".jpg")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("创建图片文件失败: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("写入图片文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("写入图片文件失败: %w", err)
	}
	r.logger.Info("图片已生成", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
