package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ByLCY/facture/config"
	"github.com/ByLCY/facture/invoice"
	"github.com/ByLCY/facture/logger"
	canvasrenderer "github.com/ByLCY/facture/renderer/canvas"
	"github.com/ByLCY/facture/server"
	"github.com/ByLCY/facture/stylesheet"
)

func main() {
	_ = godotenv.Load()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "facture:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "facture",
		Usage: "根据发票 JSON 生成 PDF",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径（默认查找 facture.yaml）"},
		},
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "渲染一张发票",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "发票 JSON 路径，- 表示标准输入", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "PDF 输出路径，- 表示标准输出", Value: "facture.pdf"},
					&cli.StringFlag{Name: "styles", Usage: "样式表路径，覆盖配置中的 render.styles"},
					&cli.StringFlag{Name: "watermark", Usage: "水印图片路径"},
					&cli.StringFlag{Name: "title", Usage: "PDF 标题"},
					&cli.StringFlag{Name: "assets", Usage: "图片资源目录，默认取配置中的 render.assets_dir"},
					&cli.StringFlag{Name: "debug", Usage: "布局调试 JSON 输出路径"},
				},
				Action: renderAction,
			},
			{
				Name:  "serve",
				Usage: "启动 HTTP 服务",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "监听地址，默认取配置中的 http.host:http.port"},
				},
				Action: serveAction,
			},
		},
	}
}

func setup(c *cli.Context) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	return cfg, log, nil
}

// renderArgs 汇总一次命令行渲染的参数。
type renderArgs struct {
	in, out   string
	styles    string
	watermark string
	title     string
	assets    string
	debug     string
	gap       float64
	labels    invoice.Labels
	fonts     map[string]string
}

func renderAction(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	args := renderArgs{
		in:        c.String("in"),
		out:       c.String("out"),
		styles:    cfg.Render.Styles,
		watermark: c.String("watermark"),
		title:     c.String("title"),
		assets:    cfg.Render.AssetsDir,
		debug:     c.String("debug"),
		gap:       cfg.Render.Gap,
		labels:    cfg.Labels,
		fonts:     cfg.Render.Fonts,
	}
	if c.IsSet("styles") {
		args.styles = c.String("styles")
	}
	if c.IsSet("assets") {
		args.assets = c.String("assets")
	}
	if err := run(args, c.App.Reader, c.App.Writer, log); err != nil {
		return err
	}
	if args.out != "-" {
		log.Info().Str("out", args.out).Msg("已生成 PDF")
	}
	return nil
}

// run 串联读取数据、样式、排版与渲染。
func run(args renderArgs, stdin io.Reader, stdout io.Writer, log *logger.Logger) error {
	payload, err := readPayload(args.in, stdin)
	if err != nil {
		return err
	}
	styles, err := loadStyles(args.styles)
	if err != nil {
		return err
	}

	opts := invoice.Options{
		Title:    args.title,
		Styles:   styles,
		Labels:   &args.labels,
		Gap:      args.gap,
		Renderer: canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: args.assets, Fonts: fontResources(args.fonts)}),
		Logger:   log.Zerolog(),
	}
	if args.watermark != "" {
		opts.Watermark = &invoice.ImageRef{Path: args.watermark}
	}
	if args.debug != "" {
		if err := os.MkdirAll(filepath.Dir(args.debug), 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
		f, err := os.Create(args.debug)
		if err != nil {
			return fmt.Errorf("创建调试文件失败: %w", err)
		}
		defer f.Close()
		opts.Debug = f
	}

	dest := invoice.ToFile(args.out)
	if args.out == "-" {
		dest = invoice.ToWriter(stdout)
	}
	doc, err := invoice.NewFromPayload(dest, payload, opts)
	if err != nil {
		return err
	}
	return doc.Create()
}

func readPayload(path string, stdin io.Reader) (invoice.Payload, error) {
	var p invoice.Payload
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return p, fmt.Errorf("无法打开发票数据 %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, fmt.Errorf("解析发票 JSON 失败: %w", err)
	}
	return p, nil
}

// loadStyles 解析样式表并覆盖默认样式；path 为空时返回 nil，即使用默认样式。
func loadStyles(path string) (*invoice.Styles, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开样式表 %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := stylesheet.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析样式表失败: %w", err)
	}
	styles := invoice.DefaultStyles()
	if err := styles.Apply(sheet); err != nil {
		return nil, fmt.Errorf("样式表 %s: %w", path, err)
	}
	return &styles, nil
}

func fontResources(paths map[string]string) map[string]canvasrenderer.Resource {
	if len(paths) == 0 {
		return nil
	}
	out := make(map[string]canvasrenderer.Resource, len(paths))
	for name, path := range paths {
		out[name] = canvasrenderer.Resource{Path: path}
	}
	return out
}

func serveAction(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	styles, err := loadStyles(cfg.Render.Styles)
	if err != nil {
		return err
	}
	addr := cfg.HTTP.Addr()
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	srv := server.New(server.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.HTTP.BodyLimit,
		AssetsDir: cfg.Render.AssetsDir,
		Fonts:     fontResources(cfg.Render.Fonts),
		Styles:    styles,
		Labels:    &cfg.Labels,
		Gap:       cfg.Render.Gap,
	}, *log.Zerolog())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(addr) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info().Msg("收到退出信号，正在关闭服务")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("服务已停止")
	return nil
}
