package glyph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by a Fetcher when the key has no image.
var ErrNotFound = errors.New("emoji 图片不存在")

// maxImageBytes bounds a single lookup response.
const maxImageBytes = 4 << 20

// Fetcher resolves a lookup key (hyphenated lowercase hex code points) to
// encoded image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, key string) ([]byte, error) { return f(ctx, key) }

// HTTPFetcher fetches <BaseURL>/<key>.png.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the given base URL. A nil client means
// http.DefaultClient.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// URL returns the image URL for key.
func (f *HTTPFetcher) URL(key string) string {
	return f.BaseURL + "/" + key + ".png"
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w (HTTP %d)", key, ErrNotFound, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// EmojiOptions configures an EmojiSource.
type EmojiOptions struct {
	Fetcher Fetcher
	// Timeout bounds each candidate lookup. Zero means 5 seconds.
	Timeout time.Duration
	// Cache may be shared between sources; nil creates a private one.
	Cache  *BitmapCache
	Logger *zap.Logger
}

// EmojiSource returns square RGBA bitmaps for emoji clusters, fetching and
// caching them on demand. It is safe for concurrent use.
type EmojiSource struct {
	fetcher Fetcher
	timeout time.Duration
	cache   *BitmapCache
	group   singleflight.Group
	logger  *zap.Logger
}

// NewEmojiSource creates an emoji source.
func NewEmojiSource(opts EmojiOptions) *EmojiSource {
	s := &EmojiSource{
		fetcher: opts.Fetcher,
		timeout: opts.Timeout,
		cache:   opts.Cache,
		logger:  opts.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	if s.cache == nil {
		s.cache = NewBitmapCache()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Cache returns the bitmap cache backing this source.
func (s *EmojiSource) Cache() *BitmapCache { return s.cache }

// Image 返回 emoji 在 size×size 像素下的位图副本；所有候选键都失败时返回 nil。
func (s *EmojiSource) Image(emoji string, size int) *image.RGBA {
	if emoji == "" || size <= 0 {
		return nil
	}
	if img, ok := s.cache.Get(emoji, size); ok {
		return img
	}
	if s.fetcher == nil {
		return nil
	}

	v, _, _ := s.group.Do(emoji+"\x00"+strconv.Itoa(size), func() (any, error) {
		img := s.lookup(emoji, size)
		if img != nil {
			s.cache.Put(emoji, size, img)
		}
		return img, nil
	})
	img, _ := v.(*image.RGBA)
	if img == nil {
		s.logger.Warn("emoji 图片不可用，留空绘制", zap.String("emoji", emoji), zap.Int("size", size))
		return nil
	}
	return cloneRGBA(img)
}

func (s *EmojiSource) lookup(emoji string, size int) *image.RGBA {
	seen := map[string]bool{}
	for _, build := range keyBuilders {
		key := build(emoji)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		img, err := s.fetchOne(key, size)
		if err != nil {
			s.logger.Debug("emoji 候选键失败", zap.String("key", key), zap.Error(err))
			continue
		}
		s.logger.Debug("emoji 图片已获取", zap.String("key", key), zap.Int("size", size))
		return img
	}
	return nil
}

func (s *EmojiSource) fetchOne(key string, size int) (*image.RGBA, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码 %s 失败: %w", key, err)
	}
	return resizeSquare(src, size), nil
}

// resizeSquare converts src to RGBA and scales it to size×size.
func resizeSquare(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
