package layout

// 该文件定义分页结果，供渲染与调试 JSON 共用。

// Result 保存分页后的页面、字体资源与元信息。
type Result struct {
	Pages []Page                  `json:"pages"`
	Fonts map[string]FontResource `json:"fonts"`
	Meta  DocumentMeta            `json:"meta"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:<name> 或 builtin:<name> 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"` // regular/bold/italic 等
}

// Color 采用 0-255 的 RGB 数值；Alpha 取值 0-1，为 0 时视为不透明。
type Color struct {
	R     int     `json:"r"`
	G     int     `json:"g"`
	B     int     `json:"b"`
	Alpha float64 `json:"alpha,omitempty"`
}

// Opacity 返回实际使用的不透明度。
func (c Color) Opacity() float64 {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return 1
	}
	return c.Alpha
}

// 常用颜色。
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Page 记录页面尺寸、边距与最终可以直接渲染的元素（单位：mm）。
type Page struct {
	Number int        `json:"number"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Margin Margin     `json:"margin"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images"`
	Tables []TableBox `json:"tables"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	Color      Color      `json:"color"`
	Lines      []TextLine `json:"lines"`
	Height     float64    `json:"height"`
	Align      Align      `json:"align,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ImageBox 用于描述图片位置与尺寸。
type ImageBox struct {
	Source ImageSource `json:"source"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// TableBox 保存表格在某一页上的片段：行位置、背景与边框规则。
// 单元格内容以 TextBox/ImageBox/嵌套 TableBox 的形式单独记录在页面上。
type TableBox struct {
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	ColumnWidths []float64  `json:"columnWidths"`
	Rows         []TableRow `json:"rows"`
	Box          *Stroke    `json:"box,omitempty"`
	InnerGrid    *Stroke    `json:"innerGrid,omitempty"`
}

// TableRow 记录每一行的位置、高度与绘制规则。
type TableRow struct {
	Index      int         `json:"index"` // 在原始表格中的行号
	Y          float64     `json:"y"`
	Height     float64     `json:"height"`
	IsHeader   bool        `json:"isHeader"`
	Background *Color      `json:"background,omitempty"`
	LineAbove  *Stroke     `json:"lineAbove,omitempty"`
	Cells      []TableCell `json:"cells"`
}

// TableCell 记录单元格的水平范围（已考虑跨列）。
type TableCell struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
	Span  int     `json:"span"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
