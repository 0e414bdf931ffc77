package server

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ByLCY/facture/invoice"
	canvasrenderer "github.com/ByLCY/facture/renderer/canvas"
)

// Config 是服务端的渲染参数。
type Config struct {
	AppName   string
	BodyLimit int
	// AssetsDir 是请求中相对图片路径的根目录，请求不能访问该目录之外的文件。
	AssetsDir string
	Fonts     map[string]canvasrenderer.Resource
	Styles    *invoice.Styles
	Labels    *invoice.Labels
	Gap       float64
}

// ErrorResponse 是错误响应体。
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server 通过 HTTP 接收发票数据并返回 PDF。
type Server struct {
	app *fiber.App
	cfg Config
	log zerolog.Logger
}

// New 创建服务并注册路由。
func New(cfg Config, log zerolog.Logger) *Server {
	s := &Server{cfg: cfg, log: log}
	s.app = fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	s.app.Get("/healthz", s.health)
	v1 := s.app.Group("/v1")
	v1.Post("/invoices/pdf", s.renderPDF)
	return s
}

// App 返回底层 fiber 应用，测试中用于 app.Test。
func (s *Server) App() *fiber.App { return s.app }

// Listen 阻塞监听 addr。
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("HTTP 服务启动")
	return s.app.Listen(addr)
}

// Shutdown 等待进行中的请求完成后关闭。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": s.cfg.AppName})
}

// renderPDF 处理 POST /v1/invoices/pdf：请求体为 invoice.Payload 的 JSON。
func (s *Server) renderPDF(c *fiber.Ctx) error {
	log := s.log.With().Str("request_id", requestID(c)).Logger()

	var p invoice.Payload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "请求体无法解析为发票 JSON"})
	}

	var buf bytes.Buffer
	doc, err := invoice.NewFromPayload(invoice.ToWriter(&buf), p, invoice.Options{
		Styles:   s.cfg.Styles,
		Labels:   s.cfg.Labels,
		Gap:      s.cfg.Gap,
		Renderer: s.engine(),
		Logger:   &log,
	})
	if err != nil {
		log.Warn().Err(err).Msg("发票数据无效")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if err := doc.Create(); err != nil {
		code := "RENDER"
		if errors.Is(err, canvasrenderer.ErrImageSource) {
			code = "IMAGE"
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: code, Message: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename(p.Invoice.Number)+`"`)
	return c.Send(buf.Bytes())
}

// engine 为每个请求创建渲染器，请求之间不共享字体与图片缓存。
func (s *Server) engine() invoice.Engine {
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:       s.cfg.AssetsDir,
		RestrictPaths: true,
		Fonts:         s.cfg.Fonts,
	})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "INTERNAL"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		code = strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_"))
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).Msg("请求失败")
	}
	return c.Status(status).JSON(ErrorResponse{Code: code, Message: err.Error()})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}

// filename 根据发票号生成下载文件名，只保留字母、数字、- 与 _。
func filename(number string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			return r
		case r == '/' || r == ' ' || r == '.':
			return '-'
		default:
			return -1
		}
	}, number)
	if clean == "" {
		return "facture.pdf"
	}
	return "facture-" + clean + ".pdf"
}
