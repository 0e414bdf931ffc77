package layout

import (
	"fmt"
)

const (
	cellPadding      = 1.2
	defaultFontSize  = 10 * PtToMm
	defaultLineRatio = 1.2
)

// Paginate 将内容流按页面规格排版，生成可直接渲染的页面。
// 段落与图片放不下时整体移到下一页；表格在行之间分页，并在每页顶部重复 RepeatRows 行。
func Paginate(doc *Document, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	spec := doc.Page
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("layout: 页面尺寸无效 %gx%g", spec.Width, spec.Height)
	}
	if spec.FrameWidth() <= 0 || spec.Height-spec.Margin.Top-spec.Margin.Bottom <= 0 {
		return nil, fmt.Errorf("layout: 边距过大，页面没有可用内容区域")
	}

	collector := newPageCollector(spec)
	root := &flowContext{
		x:              spec.Margin.Left,
		width:          spec.FrameWidth(),
		cursorY:        collector.contentTop(),
		collector:      collector,
		fonts:          doc.Fonts,
		typesetter:     opts.Typesetter,
		allowPageBreak: true,
		textAlign:      AlignLeft,
		blockAlign:     AlignCenter,
	}
	for i, f := range doc.Story {
		if err := root.place(f); err != nil {
			return nil, fmt.Errorf("layout: 第 %d 个片段排版失败: %w", i, err)
		}
	}

	return &Result{
		Pages: collector.pages(),
		Fonts: doc.Fonts,
		Meta:  doc.Meta,
	}, nil
}

type flowContext struct {
	x              float64
	width          float64
	cursorY        float64
	collector      *pageCollector
	fonts          map[string]FontResource
	typesetter     Typesetter
	allowPageBreak bool
	// textAlign 用于未声明对齐的段落，blockAlign 用于未声明对齐的图片与表格。
	textAlign  Align
	blockAlign Align
}

// child 创建一个不可分页的子上下文，用于单元格内容。
func (ctx *flowContext) child(x, y, width float64, align Align) *flowContext {
	if align == "" {
		align = AlignLeft
	}
	return &flowContext{
		x:          x,
		width:      width,
		cursorY:    y,
		collector:  ctx.collector,
		fonts:      ctx.fonts,
		typesetter: ctx.typesetter,
		textAlign:  align,
		blockAlign: align,
	}
}

func (ctx *flowContext) place(f Fragment) error {
	switch frag := f.(type) {
	case Paragraph:
		return ctx.placeParagraph(frag)
	case Spacer:
		ctx.placeSpacer(frag)
		return nil
	case Image:
		ctx.placeImage(frag)
		return nil
	case *Table:
		return ctx.placeTable(frag)
	case nil:
		return nil
	default:
		return fmt.Errorf("未知片段类型 %T", f)
	}
}

func (ctx *flowContext) placeParagraph(p Paragraph) error {
	tb, height, err := ctx.composeTextBox(p, ctx.width)
	if err != nil {
		return err
	}
	ctx.ensureSpace(height)
	tb.X = ctx.x
	tb.Y = ctx.cursorY
	ctx.acc().texts = append(ctx.acc().texts, tb)
	ctx.cursorY += height
	return nil
}

// placeSpacer 放不下的空白只把游标推到页底，不主动换页：
// 后续片段会在 ensureSpace 中换页，新页顶部不保留空白，末尾的空白也不会多出一页。
func (ctx *flowContext) placeSpacer(s Spacer) {
	if ctx.allowPageBreak && ctx.cursorY+s.Height > ctx.collector.contentBottom() {
		ctx.cursorY = ctx.collector.contentBottom()
		return
	}
	ctx.cursorY += s.Height
}

func (ctx *flowContext) placeImage(img Image) {
	if img.Source.Empty() {
		return
	}
	ctx.ensureSpace(img.Height)
	align := img.HAlign
	if align == "" {
		align = ctx.blockAlign
	}
	ctx.acc().images = append(ctx.acc().images, ImageBox{
		Source: img.Source,
		X:      ctx.x + alignOffset(ctx.width, img.Width, align),
		Y:      ctx.cursorY,
		Width:  img.Width,
		Height: img.Height,
	})
	ctx.cursorY += img.Height
}

// composeTextBox 调用 Typesetter 折行，返回坐标为 0 的文本框与其总高度。
func (ctx *flowContext) composeTextBox(p Paragraph, width float64) (TextBox, float64, error) {
	style := p.Style
	size := style.Size
	if size <= 0 {
		size = defaultFontSize
	}
	lineHeight := style.LineHeight
	if lineHeight <= 0 {
		lineHeight = size * defaultLineRatio
	}
	align := style.Align
	if align == "" {
		align = ctx.textAlign
	}
	font := resolveFont(style.Font, ctx.fonts)

	lines, err := ctx.typesetter.LayoutLines(p.Text, width, font, size, lineHeight)
	if err != nil {
		return TextBox{}, 0, fmt.Errorf("文本折行失败 %q: %w", p.Text, err)
	}
	height := 0.0
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = lineHeight
		}
		height += lines[i].GapBefore + lines[i].Height
	}
	return TextBox{
		Content:    p.Text,
		Width:      width,
		LineHeight: lineHeight,
		Font:       style.Font,
		FontSize:   size,
		Color:      style.Color,
		Lines:      lines,
		Height:     height,
		Align:      align,
	}, height, nil
}

func resolveFont(name string, fonts map[string]FontResource) FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	return FontResource{Name: name}
}

// measure 计算一组片段在给定宽度下的总高度（不分页）。
func (ctx *flowContext) measure(frags []Fragment, width float64) (float64, error) {
	total := 0.0
	for _, f := range frags {
		switch frag := f.(type) {
		case Paragraph:
			_, h, err := ctx.composeTextBox(frag, width)
			if err != nil {
				return 0, err
			}
			total += h
		case Spacer:
			total += frag.Height
		case Image:
			if !frag.Source.Empty() {
				total += frag.Height
			}
		case *Table:
			widths := columnWidths(frag, width)
			rows, err := ctx.measureRows(frag, widths)
			if err != nil {
				return 0, err
			}
			for _, r := range rows {
				total += r.height
			}
		}
	}
	return total, nil
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak {
		return
	}
	if ctx.cursorY+height <= ctx.collector.contentBottom() {
		return
	}
	// 已在页首仍放不下时原样放置，避免无限换页。
	if ctx.atPageTop() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) atPageTop() bool {
	return ctx.cursorY <= ctx.collector.contentTop()
}

func (ctx *flowContext) pageBreak() {
	ctx.collector.newPage()
	ctx.cursorY = ctx.collector.contentTop()
}

func (ctx *flowContext) acc() *pageAccumulator {
	return ctx.collector.curr()
}

func alignOffset(container, width float64, align Align) float64 {
	switch align {
	case AlignCenter:
		return (container - width) / 2
	case AlignRight:
		return container - width
	default:
		return 0
	}
}

type pageAccumulator struct {
	texts  []TextBox
	images []ImageBox
	tables []TableBox
}

type pageCollector struct {
	spec    PageSpec
	accs    []*pageAccumulator
	current int
}

func newPageCollector(spec PageSpec) *pageCollector {
	pc := &pageCollector{spec: spec}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.spec.Margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	return pc.spec.Height - pc.spec.Margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Number: i + 1,
			Width:  pc.spec.Width,
			Height: pc.spec.Height,
			Margin: pc.spec.Margin,
			Texts:  acc.texts,
			Images: acc.images,
			Tables: acc.tables,
		}
	}
	return out
}
