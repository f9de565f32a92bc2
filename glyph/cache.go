package glyph

import (
	"image"
	"sync"
)

type bitmapKey struct {
	emoji string
	size  int
}

// BitmapCache 以 (emoji, 像素尺寸) 为键保存已解码并缩放的位图。
// 条目不会被淘汰：emoji 的种类有限。读写均返回副本，调用方可以随意修改。
type BitmapCache struct {
	mu      sync.RWMutex
	entries map[bitmapKey]*image.RGBA
}

// NewBitmapCache creates an empty cache.
func NewBitmapCache() *BitmapCache {
	return &BitmapCache{entries: map[bitmapKey]*image.RGBA{}}
}

// Get returns a copy of the cached bitmap.
func (c *BitmapCache) Get(emoji string, size int) (*image.RGBA, bool) {
	c.mu.RLock()
	img, ok := c.entries[bitmapKey{emoji, size}]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneRGBA(img), true
}

// Put stores a private copy of img. Racing writers simply overwrite each
// other with equivalent data.
func (c *BitmapCache) Put(emoji string, size int, img *image.RGBA) {
	if img == nil {
		return
	}
	cp := cloneRGBA(img)
	c.mu.Lock()
	c.entries[bitmapKey{emoji, size}] = cp
	c.mu.Unlock()
}

// Len returns the number of cached bitmaps.
func (c *BitmapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
