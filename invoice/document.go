package invoice

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/renderer"
	canvasrenderer "github.com/ByLCY/facture/renderer/canvas"
)

const (
	// DefaultGap 是块之间的默认间距，单位 mm（= 1/3 英寸）。
	DefaultGap = layout.Inch / 3
	// tightGap 用于标题与数据表之后（= 1/4 英寸）。
	tightGap = layout.Inch / 4

	qrPixels = 400
)

// Page 是发票使用的 A4 页面：上边距 1/3 英寸，左右与下边距 1 英寸。
var Page = layout.PageSpec{
	Width:  layout.A4.Width,
	Height: layout.A4.Height,
	Margin: layout.Margin{
		Top:    layout.Inch / 3,
		Right:  layout.Inch,
		Bottom: layout.Inch,
		Left:   layout.Inch,
	},
}

// Engine 负责折行与绘制，canvas 渲染器同时实现了两者。
type Engine interface {
	renderer.Renderer
	layout.Typesetter
}

// Options 是可选的构建参数，零值即默认。
type Options struct {
	Title     string
	Styles    *Styles
	Labels    *Labels
	Watermark *ImageRef
	// Gap 为块之间的间距，单位 mm（1 英寸 = layout.Inch = 25.4mm），<=0 时使用 DefaultGap。
	Gap float64
	// Renderer 为空时使用 canvas 渲染器，图片的相对路径按当前工作目录解析。
	Renderer Engine
	Logger   *zerolog.Logger
	// Debug 非空时写入分页结果的 JSON。
	Debug io.Writer
}

// Document 描述一张待生成的发票。Create 可以重复调用，每次都从输入重新组装。
type Document struct {
	dest    Destination
	client  ClientInfo
	info    InvoiceInfo
	company CompanyInfo

	title     string
	styles    Styles
	labels    Labels
	watermark *ImageRef
	gap       float64
	engine    Engine
	log       zerolog.Logger
	debug     io.Writer
}

// NewDocument 校验输入并返回文档；所有校验错误合并为一个错误返回。
func NewDocument(dest Destination, client ClientInfo, info InvoiceInfo, company CompanyInfo, opts Options) (*Document, error) {
	var errs []error
	if dest == nil {
		errs = append(errs, fmt.Errorf("%w: destination", ErrMissingField))
	}
	errs = append(errs, client.Validate(), info.Validate(), company.Validate())
	if err := opts.Watermark.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("watermark: %w", err))
	}

	labels := DefaultLabels()
	if opts.Labels != nil {
		labels = opts.Labels.withDefaults()
	}
	errs = append(errs, labels.Validate())
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("发票数据无效: %w", err)
	}

	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	gap := opts.Gap
	if gap <= 0 {
		gap = DefaultGap
	}
	engine := opts.Renderer
	if engine == nil {
		engine = canvasrenderer.NewRenderer(".")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Document{
		dest:      dest,
		client:    client,
		info:      info,
		company:   company,
		title:     opts.Title,
		styles:    styles,
		labels:    labels,
		watermark: opts.Watermark,
		gap:       gap,
		engine:    engine,
		log:       log,
		debug:     opts.Debug,
	}, nil
}

// NewFromPayload 使用 Payload 构建文档；opts 中已设置的标题与水印优先。
func NewFromPayload(dest Destination, p Payload, opts Options) (*Document, error) {
	if opts.Title == "" {
		opts.Title = p.Title
	}
	if opts.Watermark == nil {
		opts.Watermark = p.Watermark
	}
	return NewDocument(dest, p.Client, p.Invoice, p.Company, opts)
}

// Compose 按固定顺序组装 页眉 → 标题 → 数据表 → 合计 → 页脚，每个块后插入间距。
// 每次调用都返回新的内容流。
func (d *Document) Compose() (*layout.Document, error) {
	logo, err := d.company.Logo.source(qrPixels)
	if err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}
	qr, err := d.company.QRCode.source(qrPixels)
	if err != nil {
		return nil, fmt.Errorf("qrCode: %w", err)
	}

	b := &blocks{
		page:    Page,
		client:  d.client,
		info:    d.info,
		company: d.company,
		styles:  &d.styles,
		labels:  d.labels,
		logo:    logo,
		qr:      qr,
	}
	story := []layout.Fragment{
		b.headerBlock(), layout.Spacer{Height: d.gap},
		b.titleBlock(), layout.Spacer{Height: tightGap},
		b.dataTable(), layout.Spacer{Height: tightGap},
		b.totalsBlock(), layout.Spacer{Height: d.gap},
		b.footerBlock(), layout.Spacer{Height: d.gap},
	}

	return &layout.Document{
		Page: Page,
		Meta: layout.DocumentMeta{
			Title:    d.title,
			Subject:  d.labels.title(d.info.Number),
			Author:   d.company.Name,
			Creator:  "facture",
			Keywords: []string{"facture", d.info.Number},
		},
		Fonts: d.styles.documentFonts(),
		Story: story,
	}, nil
}

// Layout 组装并分页，不进行绘制。
func (d *Document) Layout() (*layout.Result, error) {
	doc, err := d.Compose()
	if err != nil {
		return nil, err
	}
	res, err := layout.Paginate(doc, layout.BuildOptions{Typesetter: d.engine})
	if err != nil {
		return nil, fmt.Errorf("分页失败: %w", err)
	}
	return res, nil
}

// Create 组装、分页并渲染一次，将 PDF 写入目标。首页与后续页面都使用水印装饰。
func (d *Document) Create() error {
	start := time.Now()
	log := d.log.With().Str("build_id", uuid.NewString()).Str("invoice", d.info.Number).Logger()

	res, err := d.Layout()
	if err != nil {
		log.Error().Err(err).Msg("排版失败")
		return err
	}
	log.Debug().Int("items", len(d.info.Items)).Int("pages", len(res.Pages)).Msg("排版完成")

	if d.debug != nil {
		if err := layout.EncodeDebugJSON(res, d.debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	watermark, err := d.watermark.source(qrPixels)
	if err != nil {
		return fmt.Errorf("watermark: %w", err)
	}
	hook := watermarkHook(watermark)
	hooks := renderer.Hooks{FirstPage: hook, LaterPages: hook}

	err = d.dest.Write(func(w io.Writer) error {
		if err := d.engine.Render(w, res, hooks); err != nil {
			return fmt.Errorf("渲染失败: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dest", d.dest.String()).Msg("生成发票失败")
		return err
	}
	log.Info().
		Str("dest", d.dest.String()).
		Int("pages", len(res.Pages)).
		Dur("elapsed", time.Since(start)).
		Msg("发票已生成")
	return nil
}
