package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/speedata/optionparser"
	"go.uber.org/zap"

	"github.com/ByLCY/text2image/config"
	"github.com/ByLCY/text2image/layout"
	canvasrenderer "github.com/ByLCY/text2image/renderer/canvas"
)

// cliOptions 汇总命令行参数。
type cliOptions struct {
	input  string
	config string
	output string
	debug  string
}

func main() {
	var (
		cli     cliOptions
		verbose bool
	)
	op := optionparser.NewOptionParser()
	op.Banner = "text2img [选项] [文本文件]\n未指定文本文件时从标准输入读取。"
	op.On("-c", "--config FILE", "配置文件路径", &cli.config)
	op.On("-o", "--out FILE", "JPEG 输出路径（默认写入临时目录）", &cli.output)
	op.On("--debug FILE", "排版调试 JSON 输出路径", &cli.debug)
	op.On("-v", "--verbose", "输出调试日志", &verbose)
	if err := op.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		op.Help()
		os.Exit(2)
	}
	if len(op.Extra) > 1 {
		op.Help()
		os.Exit(2)
	}
	if len(op.Extra) == 1 {
		cli.input = op.Extra[0]
	}

	logger, err := newLogger(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cli, os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("生成图片失败", zap.Error(err))
		fmt.Fprintf(os.Stderr, "生成图片失败: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// run 串联读取文本、加载配置、排版与渲染。
func run(cli cliOptions, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	text, err := readText(cli.input, stdin)
	if err != nil {
		return err
	}

	opts := config.Default()
	if cli.config != "" {
		if opts, err = config.Load(cli.config, logger); err != nil {
			return err
		}
	}

	r := canvasrenderer.NewRenderer(canvasrenderer.Options{Logger: logger})

	if cli.debug != "" {
		res, err := r.Layout(text, opts)
		if err != nil {
			return fmt.Errorf("排版失败: %w", err)
		}
		if err := layout.WriteDebugJSON(res, cli.debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	if cli.output == "" {
		path, err := r.Render(text, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
	}

	data, err := r.RenderBytes(text, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cli.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(cli.output, data, 0o644); err != nil {
		return fmt.Errorf("写入图片失败: %w", err)
	}
	fmt.Fprintf(stdout, "已生成图片：%s\n", cli.output)
	return nil
}

func readText(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("无法打开文本文件 %s: %w", path, err)
	}
	return string(data), nil
}
