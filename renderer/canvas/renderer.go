package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/facture/fonts"
	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/renderer"
)

const defaultStrokeWidth = 0.2

// ErrImageSource 表示图片引用无法读取或解码。
var ErrImageSource = errors.New("图片资源不可用")

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir       string
	restrictPaths bool

	// injected resources
	fontBlobs map[string][]byte // by unique name
	fontErrs  map[string]error  // 注入时读取失败的字体，使用时返回该错误

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	// BaseDir resolves relative image and font paths; empty means the working directory.
	BaseDir string
	// RestrictPaths rejects absolute paths and paths escaping BaseDir.
	RestrictPaths bool
	// Fonts are injected fonts accessible via builtin:<name>.
	Fonts map[string]Resource
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:       opts.BaseDir,
		restrictPaths: opts.RestrictPaths,
		fontBlobs:     map[string][]byte{},
		fontErrs:      map[string]error{},
		fontFamilies:  map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				r.fontErrs[name] = err
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Render renders the result as PDF into w. Hooks run once per page before the body content.
func (r *Renderer) Render(w io.Writer, result *layout.Result, hooks renderer.Hooks) error {
	if result == nil || len(result.Pages) == 0 {
		return renderer.ErrNoPages
	}

	images := newImageCache(r)
	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if hook := hooks.For(i + 1); hook != nil {
			surface := &pageSurface{ctx: ctx, images: images}
			info := renderer.PageInfo{Number: i + 1, Width: page.Width, Height: page.Height}
			if err := hook(surface, info); err != nil {
				return fmt.Errorf("第 %d 页装饰失败: %w", i+1, err)
			}
		}
		if err := r.drawPage(ctx, page, result.Fonts, images); err != nil {
			return fmt.Errorf("第 %d 页绘制失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// pageSurface exposes the page context to decoration hooks.
type pageSurface struct {
	ctx    *canvas.Context
	images *imageCache
}

func (s *pageSurface) Push() { s.ctx.Push() }
func (s *pageSurface) Pop()  { s.ctx.Pop() }

func (s *pageSurface) DrawImage(src layout.ImageSource, x, y, width, height float64) error {
	img, err := s.images.load(src)
	if err != nil {
		return err
	}
	drawFitted(s.ctx, img, x, y, width, height)
	return nil
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight 入参均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Black)
	if err != nil {
		return nil, err
	}

	lines := greedyWrapTokens(norm.NFC.String(content), width, face)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Width: 0}}
	}
	for i := range lines {
		lines[i].Height = textHeight
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, fonts map[string]layout.FontResource, images *imageCache) error {
	for _, table := range page.Tables {
		r.drawTable(ctx, table)
	}
	for _, img := range page.Images {
		data, err := images.load(img.Source)
		if err != nil {
			return err
		}
		drawFitted(ctx, data, img.X, img.Y, img.Width, img.Height)
	}
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, fonts)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch tb.Align {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		textLine := canvas.NewTextLine(face, norm.NFC.String(line.Content), textAlign)
		// 基线位置：行顶部加上字体上升部
		ctx.DrawText(anchorX, cursorY+ascent, textLine)
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.LineHeight
		}
		cursorY += lineHeight
	}
	return nil
}

// drawTable 先填充行背景，再绘制网格、行上边线与外框。
func (r *Renderer) drawTable(ctx *canvas.Context, table layout.TableBox) {
	for _, row := range table.Rows {
		if row.Background == nil {
			continue
		}
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.SetFillColor(colorFromLayout(*row.Background))
		ctx.DrawPath(table.X, row.Y, canvas.Rectangle(table.Width, row.Height))
	}
	if table.InnerGrid != nil {
		for _, row := range table.Rows {
			for _, cell := range row.Cells {
				strokeRect(ctx, cell.X, row.Y, cell.Width, row.Height, *table.InnerGrid)
			}
		}
	}
	for _, row := range table.Rows {
		if row.LineAbove == nil {
			continue
		}
		strokeLine(ctx, table.X, row.Y, table.X+table.Width, row.Y, *row.LineAbove)
	}
	if table.Box != nil {
		strokeRect(ctx, table.X, table.Y, table.Width, table.Height, *table.Box)
	}
}

func strokeRect(ctx *canvas.Context, x, y, w, h float64, s layout.Stroke) {
	width := s.Width
	if width <= 0 {
		width = defaultStrokeWidth
	}
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFromLayout(s.Color))
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

// strokeLine 绘制一条线段（毫米单位）。
func strokeLine(ctx *canvas.Context, x1, y1, x2, y2 float64, s layout.Stroke) {
	width := s.Width
	if width <= 0 {
		width = defaultStrokeWidth
	}
	ctx.SetStrokeColor(colorFromLayout(s.Color))
	ctx.SetStrokeWidth(width)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(x2-x1, y2-y1)
	ctx.DrawPath(x1, y1, p)
}

// drawFitted 将图片等比缩放到 width×height 内并居中绘制。
func drawFitted(ctx *canvas.Context, img image.Image, x, y, width, height float64) {
	px := float64(img.Bounds().Dx())
	py := float64(img.Bounds().Dy())
	if px <= 0 || py <= 0 || width <= 0 || height <= 0 {
		return
	}
	dpmm := math.Max(px/width, py/height)
	drawnW := px / dpmm
	drawnH := py / dpmm
	ctx.DrawImage(x+(width-drawnW)/2, y+(height-drawnH)/2, img, canvas.DPMM(dpmm))
}

// imageCache decodes each image once per Render call; the watermark is drawn on every page.
type imageCache struct {
	r      *Renderer
	byPath map[string]image.Image
	byData map[*byte]image.Image
}

func newImageCache(r *Renderer) *imageCache {
	return &imageCache{r: r, byPath: map[string]image.Image{}, byData: map[*byte]image.Image{}}
}

func (c *imageCache) load(src layout.ImageSource) (image.Image, error) {
	if len(src.Data) > 0 {
		key := &src.Data[0]
		if img, ok := c.byData[key]; ok {
			return img, nil
		}
		img, _, err := image.Decode(bytes.NewReader(src.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: 解码内存图片失败: %v", ErrImageSource, err)
		}
		c.byData[key] = img
		return img, nil
	}
	if src.Path == "" {
		return nil, fmt.Errorf("%w: 图片引用为空", ErrImageSource)
	}
	if img, ok := c.byPath[src.Path]; ok {
		return img, nil
	}
	path, err := c.r.resolvePath(src.Path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取图片 %s 失败: %v", ErrImageSource, src.Path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: 解码图片 %s 失败: %v", ErrImageSource, src.Path, err)
	}
	c.byPath[src.Path] = img
	return img, nil
}

func (r *Renderer) resolvePath(p string) (string, error) {
	if filepath.IsAbs(p) {
		if r.restrictPaths {
			return "", fmt.Errorf("%w: 不允许使用绝对路径 %s", ErrImageSource, p)
		}
		return p, nil
	}
	if r.baseDir == "" {
		// 未指定资源目录时相对路径按当前工作目录解析；受限模式必须有根目录。
		if r.restrictPaths {
			return "", fmt.Errorf("%w: 未指定资源目录时不允许直接使用相对路径：%s", ErrImageSource, p)
		}
		return p, nil
	}
	full := filepath.Join(r.baseDir, p)
	if r.restrictPaths {
		rel, err := filepath.Rel(r.baseDir, full)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: 路径 %s 超出资源目录", ErrImageSource, p)
		}
	}
	return full, nil
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		// 只有未声明来源的字体才回退到默认字体，声明了来源却加载失败时直接报错。
		if font.Src != "" {
			return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", familyName, err)
		}
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		if err, ok := r.fontErrs[name]; ok {
			return nil, fmt.Errorf("读取内置字体 builtin:%s 失败: %w", name, err)
		}
		return nil, fmt.Errorf("找不到内置字体资源 builtin:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" && r.restrictPaths {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin: 或 embed:）", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.SansRegular)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("facture-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	return layout.FontResource{Name: name}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.Opacity())
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// greedyWrapTokens 优先在空白处断行，单个词超过限制时在词内拆分；显式换行始终生效。
// 宽度单位为 mm。
func greedyWrapTokens(content string, width float64, face *canvas.FontFace) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []layout.TextLine
	var builder strings.Builder
	currentWidth := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{})
			}
			return
		}
		// 行尾空白不参与对齐
		text := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		lines = append(lines, layout.TextLine{Content: text, Width: face.TextWidth(text)})
		builder.Reset()
		currentWidth = 0
	}
	appendToken := func(token string) {
		builder.WriteString(token)
		currentWidth += face.TextWidth(token)
	}

	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		isSpace := strings.TrimSpace(token) == ""
		tokenWidth := face.TextWidth(token)
		if currentWidth > 0 && currentWidth+tokenWidth > limit {
			if isSpace {
				// 换行处的空白直接丢弃
				emit(false)
				continue
			}
			emit(false)
		}
		if isSpace && builder.Len() == 0 && len(lines) > 0 {
			continue
		}
		if tokenWidth <= limit {
			appendToken(token)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			chunkWidth := face.TextWidth(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(true)
	return lines
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
