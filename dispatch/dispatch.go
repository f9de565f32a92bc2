// Package dispatch 决定一段回复文本是否需要转图，并在并发上限内调用渲染器。
package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ByLCY/text2image/config"
	"github.com/ByLCY/text2image/renderer"
)

// ErrSkipped 表示文本不满足转图条件，调用方应原样发送文本。
var ErrSkipped = errors.New("不满足转图条件")

// Image 是已读入内存的渲染结果；临时文件在返回前已删除。
type Image struct {
	Data []byte
}

// Base64URI 返回聊天适配器可直接发送的 base64:// 形式。
func (i *Image) Base64URI() string {
	return "base64://" + base64.StdEncoding.EncodeToString(i.Data)
}

// Dispatcher applies the trigger policy and bounds concurrent renders.
type Dispatcher struct {
	renderer renderer.Renderer
	opts     config.Options
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

// New creates a dispatcher. opts.MaxConcurrent limits renders in flight.
func New(r renderer.Renderer, opts config.Options, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = config.DefaultMaxConcurrent
	}
	return &Dispatcher{
		renderer: r,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(limit)),
		logger:   logger,
	}
}

// ShouldRender 报告文本是否需要转图：开关打开、去除首尾空白后非空且未超过字符数阈值。
func (d *Dispatcher) ShouldRender(text string) bool {
	if !d.opts.EnableRender {
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if d.opts.CharThreshold > 0 && utf8.RuneCountInString(text) > d.opts.CharThreshold {
		return false
	}
	return true
}

type outcome struct {
	img *Image
	err error
}

// Convert 渲染文本并返回图片数据。不满足条件时返回 ErrSkipped。
// ctx 只约束等待；已开始的渲染会在后台完成并清理临时文件。
func (d *Dispatcher) Convert(ctx context.Context, text string) (*Image, error) {
	if !d.ShouldRender(text) {
		return nil, ErrSkipped
	}
	text = strings.TrimSpace(text)

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	done := make(chan outcome, 1)
	go func() {
		defer d.sem.Release(1)
		img, err := d.render(text)
		done <- outcome{img: img, err: err}
	}()

	select {
	case out := <-done:
		return out.img, out.err
	case <-ctx.Done():
		d.logger.Warn("等待渲染超时，结果将被丢弃", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) render(text string) (*Image, error) {
	path, err := d.renderer.Render(text, d.opts)
	if err != nil {
		d.logger.Error("文字转图片失败", zap.Error(err))
		return nil, fmt.Errorf("渲染失败: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("清理临时文件失败", zap.String("path", path), zap.Error(err))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片失败: %w", err)
	}
	return &Image{Data: data}, nil
}
