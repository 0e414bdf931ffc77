package invoice

import "github.com/ByLCY/facture/layout"

const (
	tableColumns = 4

	logoSize = 50  // pt
	qrSize   = 100 // pt
)

var (
	// DarkGrey 与 LightGrey 是数据表默认的交替背景色。
	DarkGrey  = layout.Color{R: 169, G: 169, B: 169, Alpha: 0.7}
	LightGrey = layout.Color{R: 211, G: 211, B: 211, Alpha: 0.5}

	gridStroke = layout.Stroke{Width: layout.Pt(0.25), Color: layout.Black}
	ruleStroke = layout.Stroke{Width: layout.Pt(0.25), Color: layout.Color{R: 211, G: 211, B: 211}}
)

// blocks 持有一次构建的只读输入。
type blocks struct {
	page    layout.PageSpec
	client  ClientInfo
	info    InvoiceInfo
	company CompanyInfo
	styles  *Styles
	labels  Labels

	logo layout.ImageSource
	qr   layout.ImageSource
}

// halfColumns 是页眉与页脚两列的宽度：半页宽减去 1/3 英寸。
func (b *blocks) halfColumns() []float64 {
	w := b.page.Width/2 - layout.Inch/3
	return []float64{w, w}
}

// headerBlock 左列放可选的 logo，右列堆叠公司名、开票日期与客户名。
func (b *blocks) headerBlock() *layout.Table {
	left := layout.Cell{Align: layout.AlignLeft}
	if !b.logo.Empty() {
		left.Content = []layout.Fragment{layout.Image{
			Source: b.logo,
			Width:  layout.Pt(logoSize),
			Height: layout.Pt(logoSize),
			HAlign: layout.AlignLeft,
		}}
	}

	texts := &layout.Table{
		Rows: []layout.Row{
			{Cells: []layout.Cell{layout.TextCell(b.company.Name, b.styles.Get(CenterHeader))}},
			{Cells: []layout.Cell{layout.TextCell(b.info.Date, b.styles.Get(RightBody))}},
			{Cells: []layout.Cell{layout.TextCell(b.client.Name, b.styles.Get(RightBody))}},
		},
		HAlign: layout.AlignRight,
	}
	right := layout.Cell{
		Content: []layout.Fragment{texts},
		Align:   layout.AlignRight,
		VAlign:  layout.VAlignTop,
	}

	return &layout.Table{
		Rows:         []layout.Row{{Cells: []layout.Cell{left, right}}},
		ColumnWidths: b.halfColumns(),
	}
}

func (b *blocks) titleBlock() layout.Paragraph {
	return layout.Paragraph{Text: b.labels.title(b.info.Number), Style: b.styles.Get(CenterHeader)}
}

// dataColumnWidths 将内容区宽度按 3:1:1:1 分配。
func (b *blocks) dataColumnWidths() []float64 {
	unit := b.page.FrameWidth() / 6
	return []float64{unit * 3, unit, unit, unit}
}

// rowColors 返回数据行的交替背景色，表头不参与交替。
func (b *blocks) rowColors() []layout.Color {
	if len(b.info.RowColors) == 2 {
		return []layout.Color{b.info.RowColors[0], b.info.RowColors[1]}
	}
	return []layout.Color{DarkGrey, LightGrey}
}

// dataTable 第一行为表头，其后每个商品一行；跨页时重复表头。
func (b *blocks) dataTable() *layout.Table {
	style := b.styles.Get(LeftBody)
	rows := make([]layout.Row, 0, len(b.info.Items)+1)

	header := layout.Row{}
	for _, col := range b.info.Columns {
		header.Cells = append(header.Cells, layout.TextCell(col, style))
	}
	rows = append(rows, header)

	for _, item := range b.info.Items {
		row := layout.Row{}
		for _, v := range item.RowData() {
			row.Cells = append(row.Cells, layout.TextCell(v, style))
		}
		rows = append(rows, row)
	}

	grid := gridStroke
	box := gridStroke
	return &layout.Table{
		Rows:               rows,
		ColumnWidths:       b.dataColumnWidths(),
		RepeatRows:         1,
		InnerGrid:          &grid,
		Box:                &box,
		RowBackgrounds:     b.rowColors(),
		RowBackgroundsFrom: 1,
	}
}

// totalsBlock 右对齐的四行合计，最后一行加深色背景。
func (b *blocks) totalsBlock() *layout.Table {
	deliveryCost := b.info.DeliveryCost
	if deliveryCost == "" {
		deliveryCost = "0"
	}
	lines := []struct{ label, value string }{
		{b.labels.TotalHT, b.info.TotalHT},
		{b.labels.tax(b.info.TaxRate), b.info.TotalTVA},
		{b.labels.delivery(b.info.DeliveryCompany), deliveryCost},
		{b.labels.TotalTTC, b.info.TotalTTC},
	}

	rows := make([]layout.Row, 0, len(lines))
	for _, ln := range lines {
		rule := ruleStroke
		label := layout.TextCell(ln.label, b.styles.Get(LeftHeader))
		label.VAlign = layout.VAlignMiddle
		value := layout.TextCell(b.labels.amount(ln.value), b.styles.Get(RightBody))
		value.VAlign = layout.VAlignMiddle
		rows = append(rows, layout.Row{Cells: []layout.Cell{label, value}, LineAbove: &rule})
	}
	shade := DarkGrey
	rows[len(rows)-1].Background = &shade

	box := ruleStroke
	return &layout.Table{
		Rows:         rows,
		ColumnWidths: []float64{2 * layout.Inch, layout.Inch},
		HAlign:       layout.AlignRight,
		Box:          &box,
	}
}

// footerField 是页脚明细中的一行：字段存在时才追加。
type footerField struct {
	present func(CompanyInfo) bool
	row     func(CompanyInfo, Labels, *Styles) layout.Row
}

// textField 构造“标签: 值”形式的字段。
func textField(label func(Labels) string, value func(CompanyInfo) string) footerField {
	return footerField{
		present: func(c CompanyInfo) bool { return value(c) != "" },
		row: func(c CompanyInfo, l Labels, s *Styles) layout.Row {
			return layout.Row{Cells: []layout.Cell{
				layout.TextCell(label(l), s.Get(LeftHeader)),
				layout.TextCell(value(c), s.Get(RightBody)),
			}}
		},
	}
}

// footerFields 的顺序即页脚中的行序。
var footerFields = []footerField{
	textField(func(l Labels) string { return l.Siret }, func(c CompanyInfo) string { return c.Siret }),
	textField(func(l Labels) string { return l.TVA }, func(c CompanyInfo) string { return c.TVA }),
	textField(func(l Labels) string { return l.RCS }, func(c CompanyInfo) string { return c.RCS }),
	textField(func(l Labels) string { return l.NIF }, func(c CompanyInfo) string { return c.NIF }),
	textField(func(l Labels) string { return l.NIS }, func(c CompanyInfo) string { return c.NIS }),
	textField(func(l Labels) string { return l.RC }, func(c CompanyInfo) string { return c.RC }),
	textField(func(l Labels) string { return l.Address }, func(c CompanyInfo) string { return c.Address }),
	textField(func(l Labels) string { return l.Phone }, func(c CompanyInfo) string { return c.Phone }),
	textField(func(l Labels) string { return l.Email }, func(c CompanyInfo) string { return c.Email }),
	textField(func(l Labels) string { return l.RIB }, func(c CompanyInfo) string {
		if c.BankAccount == nil {
			return ""
		}
		return c.BankAccount.RIB
	}),
}

// companyDetails 首行为公司名（跨两列），其后每个存在的字段一行。
func (b *blocks) companyDetails() *layout.Table {
	rowHeight := layout.Inch / 3
	name := layout.TextCell(b.company.Name, b.styles.Get(CenterHeader))
	name.ColSpan = 2
	name.Align = layout.AlignCenter

	rows := []layout.Row{{Cells: []layout.Cell{name}, Height: rowHeight}}
	for _, f := range footerFields {
		if !f.present(b.company) {
			continue
		}
		row := f.row(b.company, b.labels, b.styles)
		row.Height = rowHeight
		rows = append(rows, row)
	}
	if len(rows) > 1 {
		rule := ruleStroke
		rows[1].LineAbove = &rule
	}

	box := ruleStroke
	return &layout.Table{
		Rows:   rows,
		HAlign: layout.AlignRight,
		Box:    &box,
	}
}

// footerBlock 左列放可选的二维码，右列为公司明细表。
func (b *blocks) footerBlock() *layout.Table {
	left := layout.Cell{Align: layout.AlignLeft}
	if !b.qr.Empty() {
		left.Content = []layout.Fragment{layout.Image{
			Source: b.qr,
			Width:  layout.Pt(qrSize),
			Height: layout.Pt(qrSize),
			HAlign: layout.AlignLeft,
		}}
	}
	right := layout.Cell{
		Content: []layout.Fragment{b.companyDetails()},
		Align:   layout.AlignRight,
		VAlign:  layout.VAlignTop,
	}
	return &layout.Table{
		Rows:         []layout.Row{{Cells: []layout.Cell{left, right}}},
		ColumnWidths: b.halfColumns(),
	}
}
