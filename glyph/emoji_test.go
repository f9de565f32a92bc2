package glyph

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCandidateKeys(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"😀", []string{"1f600"}},
		{"❤️", []string{"2764", "2764-fe0f"}},
		{"👨‍👩‍👧", []string{"1f468-200d-1f469-200d-1f467", "1f468"}},
		{"🏳️‍🌈", []string{"1f3f3-200d-1f308", "1f3f3-fe0f-200d-1f308", "1f3f3"}},
		{"️", []string{"fe0f"}},
	}
	for _, tc := range cases {
		if got := CandidateKeys(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("CandidateKeys(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEmojiSourceFallsThroughCandidates(t *testing.T) {
	red := pngBytes(t, 72, 72, color.RGBA{255, 0, 0, 255})
	var mu sync.Mutex
	var tried []string
	fetcher := FetcherFunc(func(ctx context.Context, key string) ([]byte, error) {
		mu.Lock()
		tried = append(tried, key)
		mu.Unlock()
		switch key {
		case "2764":
			return []byte("not an image"), nil
		case "2764-fe0f":
			return red, nil
		}
		return nil, ErrNotFound
	})

	src := NewEmojiSource(EmojiOptions{Fetcher: fetcher})
	img := src.Image("❤️", 40)
	if img == nil {
		t.Fatalf("expected bitmap from second candidate")
	}
	if img.Bounds() != image.Rect(0, 0, 40, 40) {
		t.Fatalf("expected 40x40 bitmap, got %v", img.Bounds())
	}
	if got := img.RGBAAt(20, 20); got.R < 250 || got.A != 255 {
		t.Fatalf("unexpected pixel %v", got)
	}
	if !reflect.DeepEqual(tried, []string{"2764", "2764-fe0f"}) {
		t.Fatalf("unexpected lookup order %v", tried)
	}

	// 命中缓存时不再请求。
	if src.Image("❤️", 40) == nil {
		t.Fatalf("expected cached bitmap")
	}
	if len(tried) != 2 {
		t.Fatalf("cache hit should not fetch, tried %v", tried)
	}
	if src.Cache().Len() != 1 {
		t.Fatalf("expected one cache entry, got %d", src.Cache().Len())
	}
}

func TestEmojiSourceReturnsCopies(t *testing.T) {
	blue := pngBytes(t, 16, 16, color.RGBA{0, 0, 255, 255})
	src := NewEmojiSource(EmojiOptions{Fetcher: FetcherFunc(func(ctx context.Context, key string) ([]byte, error) {
		return blue, nil
	})})

	first := src.Image("😀", 8)
	if first == nil {
		t.Fatalf("expected bitmap")
	}
	for i := range first.Pix {
		first.Pix[i] = 0
	}
	second := src.Image("😀", 8)
	if got := second.RGBAAt(4, 4); got.B != 255 {
		t.Fatalf("cached bitmap was mutated through a returned copy: %v", got)
	}
}

func TestEmojiSourceAllCandidatesFail(t *testing.T) {
	var calls atomic.Int32
	src := NewEmojiSource(EmojiOptions{Fetcher: FetcherFunc(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("network down")
	})})
	if img := src.Image("🏳️‍🌈", 20); img != nil {
		t.Fatalf("expected nil bitmap when every candidate fails")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 candidate lookups, got %d", calls.Load())
	}
	if src.Cache().Len() != 0 {
		t.Fatalf("failures must not be cached")
	}
	if src.Image("", 20) != nil || src.Image("😀", 0) != nil {
		t.Fatalf("degenerate requests must return nil")
	}
}

func TestEmojiSourceTimeoutIsAMiss(t *testing.T) {
	green := pngBytes(t, 4, 4, color.RGBA{0, 255, 0, 255})
	src := NewEmojiSource(EmojiOptions{
		Timeout: 20 * time.Millisecond,
		Fetcher: FetcherFunc(func(ctx context.Context, key string) ([]byte, error) {
			if key == "1f468-200d-1f469-200d-1f467" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return green, nil
		}),
	})
	if img := src.Image("👨‍👩‍👧", 10); img == nil {
		t.Fatalf("expected base glyph after the first candidate timed out")
	}
}

func TestEmojiSourceConcurrent(t *testing.T) {
	data := pngBytes(t, 8, 8, color.RGBA{10, 20, 30, 255})
	src := NewEmojiSource(EmojiOptions{Fetcher: FetcherFunc(func(ctx context.Context, key string) ([]byte, error) {
		return data, nil
	})})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			emoji := []string{"😀", "🎉", "🚀", "👍"}[i%4]
			if img := src.Image(emoji, 12+(i/4)%2); img == nil {
				t.Errorf("missing bitmap for %s", emoji)
			}
		}(i)
	}
	wg.Wait()
	if n := src.Cache().Len(); n != 8 {
		t.Fatalf("expected 8 cache entries, got %d", n)
	}
}

func TestHTTPFetcher(t *testing.T) {
	data := pngBytes(t, 72, 72, color.RGBA{1, 2, 3, 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/1f600.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/assets/", srv.Client())
	if got := f.URL("1f600"); !strings.HasSuffix(got, "/assets/1f600.png") {
		t.Fatalf("unexpected url %s", got)
	}
	body, err := f.Fetch(context.Background(), "1f600")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !bytes.Equal(body, data) {
		t.Fatalf("body mismatch")
	}
	if _, err := f.Fetch(context.Background(), "1f601"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	src := NewEmojiSource(EmojiOptions{Fetcher: f})
	if img := src.Image("😀", 26); img == nil || img.Bounds().Dx() != 26 {
		t.Fatalf("expected 26px bitmap from http fetcher")
	}
}
