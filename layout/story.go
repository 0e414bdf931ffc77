package layout

// 该文件定义排版输入：由片段（Fragment）组成的内容流（story）。
// 所有长度单位均为毫米（mm）。

// Document 是分页器的输入：页面规格、元信息、字体资源与内容流。
type Document struct {
	Page  PageSpec                `json:"page"`
	Meta  DocumentMeta            `json:"meta"`
	Fonts map[string]FontResource `json:"fonts"`
	Story []Fragment              `json:"-"`
}

// PageSpec 描述纸张尺寸与边距。
type PageSpec struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// A4 纸张尺寸（mm）。
var A4 = PageSpec{Width: 210, Height: 297}

// FrameWidth 返回内容区宽度（页宽减去左右边距）。
func (p PageSpec) FrameWidth() float64 {
	return p.Width - p.Margin.Left - p.Margin.Right
}

// Fragment 是内容流中的一个元素：段落、表格、图片或空白。
type Fragment interface {
	fragment()
}

// Align 表示水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// VAlign 表示单元格内的垂直对齐方式。
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// TextStyle 描述段落的字体、字号、行高、颜色与对齐。
type TextStyle struct {
	Name       string  `json:"name"`
	Font       string  `json:"font"`       // 对应 Document.Fonts 的键
	Size       float64 `json:"size"`       // mm
	LineHeight float64 `json:"lineHeight"` // mm，<=0 时取 Size*1.2
	Color      Color   `json:"color"`
	Align      Align   `json:"align,omitempty"`
}

// Paragraph 是一段可折行的文本。
type Paragraph struct {
	Text  string
	Style TextStyle
}

// Spacer 在内容流中插入固定高度的空白（mm）。放不下时丢弃，不会单独占一页。
type Spacer struct {
	Width  float64
	Height float64
}

// ImageSource 指向图片数据：Data 优先，否则按 Path 读取。
type ImageSource struct {
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// Empty 报告图片来源是否为空。
func (s ImageSource) Empty() bool { return s.Path == "" && len(s.Data) == 0 }

// Image 是固定尺寸的图片片段。
type Image struct {
	Source ImageSource
	Width  float64
	Height float64
	HAlign Align // 为空时居中
}

// Stroke 描述边框线的宽度与颜色。
type Stroke struct {
	Width float64 `json:"width"`
	Color Color   `json:"color"`
}

// Cell 是表格单元格，内容可以是任意片段（包括嵌套表格）。
type Cell struct {
	Content []Fragment
	Align   Align  // 非段落内容（图片、嵌套表格）的水平对齐；段落未指定对齐时也使用它
	VAlign  VAlign // 为空时顶部对齐
	ColSpan int    // <=1 表示不合并
}

// Row 是表格中的一行。
type Row struct {
	Cells      []Cell
	Height     float64 // 固定行高，<=0 表示按内容计算
	Background *Color
	LineAbove  *Stroke
}

// Table 是带样式规则的表格片段。
type Table struct {
	Rows []Row
	// ColumnWidths 为空时按内容区宽度均分。
	ColumnWidths []float64
	// RepeatRows 指定跨页时在每页顶部重复的前若干行。
	RepeatRows int
	HAlign     Align // 为空时居中
	Box        *Stroke
	InnerGrid  *Stroke
	// RowBackgrounds 从 RowBackgroundsFrom 行开始循环使用。
	RowBackgrounds     []Color
	RowBackgroundsFrom int
}

// BackgroundFor 返回第 row 行的背景色：显式的 Row.Background 优先，其次是交替色。
func (t *Table) BackgroundFor(row int) (Color, bool) {
	if row < 0 || row >= len(t.Rows) {
		return Color{}, false
	}
	if bg := t.Rows[row].Background; bg != nil {
		return *bg, true
	}
	if len(t.RowBackgrounds) == 0 || row < t.RowBackgroundsFrom {
		return Color{}, false
	}
	return t.RowBackgrounds[(row-t.RowBackgroundsFrom)%len(t.RowBackgrounds)], true
}

// Columns 返回表格的列数（取各行单元格跨度之和的最大值）。
func (t *Table) Columns() int {
	if len(t.ColumnWidths) > 0 {
		return len(t.ColumnWidths)
	}
	n := 0
	for _, r := range t.Rows {
		span := 0
		for _, c := range r.Cells {
			span += c.span()
		}
		if span > n {
			n = span
		}
	}
	return n
}

func (c Cell) span() int {
	if c.ColSpan <= 1 {
		return 1
	}
	return c.ColSpan
}

// TextCell 是只含一个段落的单元格。
func TextCell(text string, style TextStyle) Cell {
	return Cell{Content: []Fragment{Paragraph{Text: text, Style: style}}}
}

func (Paragraph) fragment() {}
func (Spacer) fragment()    {}
func (Image) fragment()     {}
func (*Table) fragment()    {}
