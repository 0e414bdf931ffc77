package layout

import "fmt"

// rowMetrics 缓存一行的高度与各单元格的内容高度，避免放置时重复折行。
type rowMetrics struct {
	height float64
	cells  []cellMetrics
}

type cellMetrics struct {
	cell     Cell
	col      int
	span     int
	x        float64 // 相对表格左侧
	width    float64
	contentH float64
}

// columnWidths 返回列宽；未声明时按可用宽度均分。
func columnWidths(t *Table, available float64) []float64 {
	if len(t.ColumnWidths) > 0 {
		out := make([]float64, len(t.ColumnWidths))
		copy(out, t.ColumnWidths)
		return out
	}
	cols := t.Columns()
	if cols == 0 {
		return nil
	}
	out := make([]float64, cols)
	for i := range out {
		out[i] = available / float64(cols)
	}
	return out
}

func (ctx *flowContext) measureRows(t *Table, widths []float64) ([]rowMetrics, error) {
	if len(widths) == 0 {
		return nil, fmt.Errorf("表格需要至少一个单元格")
	}
	offsets := make([]float64, len(widths)+1)
	for i, w := range widths {
		offsets[i+1] = offsets[i] + w
	}

	rows := make([]rowMetrics, len(t.Rows))
	for r, row := range t.Rows {
		m := rowMetrics{}
		col := 0
		maxH := 0.0
		for _, cell := range row.Cells {
			if col >= len(widths) {
				break
			}
			span := cell.span()
			if col+span > len(widths) {
				span = len(widths) - col
			}
			cellWidth := offsets[col+span] - offsets[col]
			inner := cellWidth - 2*cellPadding
			if inner <= 0 {
				inner = cellWidth
			}
			h, err := ctx.measure(cell.Content, inner)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行第 %d 列: %w", r, col, err)
			}
			m.cells = append(m.cells, cellMetrics{
				cell:     cell,
				col:      col,
				span:     span,
				x:        offsets[col],
				width:    cellWidth,
				contentH: h,
			})
			if h+2*cellPadding > maxH {
				maxH = h + 2*cellPadding
			}
			col += span
		}
		m.height = maxH
		if row.Height > 0 {
			m.height = row.Height
		}
		rows[r] = m
	}
	return rows, nil
}

// placeTable 逐行放置表格，行放不下时换页，并在新页顶部重复表头行。
func (ctx *flowContext) placeTable(t *Table) error {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	widths := columnWidths(t, ctx.width)
	metrics, err := ctx.measureRows(t, widths)
	if err != nil {
		return err
	}
	tableWidth := 0.0
	for _, w := range widths {
		tableWidth += w
	}
	align := t.HAlign
	if align == "" {
		align = ctx.blockAlign
	}
	x := ctx.x + alignOffset(ctx.width, tableWidth, align)

	repeat := t.RepeatRows
	if repeat < 0 {
		repeat = 0
	}
	if repeat > len(t.Rows) {
		repeat = len(t.Rows)
	}

	seg := ctx.openSegment(t, x, tableWidth, widths)
	for i := 0; i < len(t.Rows); i++ {
		h := metrics[i].height
		if ctx.allowPageBreak && ctx.cursorY+h > ctx.collector.contentBottom() && !seg.pinned(ctx) {
			if seg.dataRows == 0 && len(seg.rows()) > 0 && i >= repeat {
				// 表头单独留在页尾：整体移到下一页重新开始。
				seg.discard()
				ctx.pageBreak()
				seg = ctx.openSegment(t, x, tableWidth, widths)
				i = -1
				continue
			}
			seg.close()
			ctx.pageBreak()
			seg = ctx.openSegment(t, x, tableWidth, widths)
			if i >= repeat {
				for hr := 0; hr < repeat; hr++ {
					if err := ctx.addRow(seg, t, hr, metrics[hr], true); err != nil {
						return err
					}
				}
			}
		}
		if err := ctx.addRow(seg, t, i, metrics[i], i < repeat); err != nil {
			return err
		}
		if i >= repeat {
			seg.dataRows++
		}
	}
	seg.close()
	return nil
}

// tableSegment 是表格落在某一页上的部分。TableBox 在段开始时就写入页面，
// 保证外层表格的背景先于单元格内的嵌套表格绘制。
type tableSegment struct {
	acc      *pageAccumulator
	index    int
	top      float64
	dataRows int
	// 丢弃段时需要回滚的页面元素数量
	texts, images, tables int
}

func (ctx *flowContext) openSegment(t *Table, x, width float64, widths []float64) *tableSegment {
	acc := ctx.acc()
	seg := &tableSegment{
		acc:    acc,
		index:  len(acc.tables),
		top:    ctx.cursorY,
		texts:  len(acc.texts),
		images: len(acc.images),
		tables: len(acc.tables),
	}
	acc.tables = append(acc.tables, TableBox{
		X:            x,
		Y:            ctx.cursorY,
		Width:        width,
		ColumnWidths: widths,
		Box:          t.Box,
		InnerGrid:    t.InnerGrid,
	})
	return seg
}

func (s *tableSegment) box() *TableBox { return &s.acc.tables[s.index] }

func (s *tableSegment) rows() []TableRow { return s.box().Rows }

// pinned 报告该段是否已经位于页首且只有表头：此时换页无济于事。
func (s *tableSegment) pinned(ctx *flowContext) bool {
	return s.dataRows == 0 && s.top <= ctx.collector.contentTop()
}

func (s *tableSegment) close() {
	box := s.box()
	if len(box.Rows) == 0 {
		s.discard()
		return
	}
	last := box.Rows[len(box.Rows)-1]
	box.Height = last.Y + last.Height - box.Y
}

func (s *tableSegment) discard() {
	s.acc.texts = s.acc.texts[:s.texts]
	s.acc.images = s.acc.images[:s.images]
	s.acc.tables = s.acc.tables[:s.tables]
}

func (ctx *flowContext) addRow(seg *tableSegment, t *Table, index int, m rowMetrics, header bool) error {
	row := t.Rows[index]
	tr := TableRow{
		Index:     index,
		Y:         ctx.cursorY,
		Height:    m.height,
		IsHeader:  header,
		LineAbove: row.LineAbove,
	}
	if bg, ok := t.BackgroundFor(index); ok {
		c := bg
		tr.Background = &c
	}
	box := seg.box()
	x := box.X
	for _, cm := range m.cells {
		tr.Cells = append(tr.Cells, TableCell{X: x + cm.x, Width: cm.width, Span: cm.span})
	}
	box.Rows = append(box.Rows, tr)

	for _, cm := range m.cells {
		inner := cm.width - 2*cellPadding
		if inner <= 0 {
			inner = cm.width
		}
		offset := cellPadding
		switch cm.cell.VAlign {
		case VAlignMiddle:
			offset = (m.height - cm.contentH) / 2
		case VAlignBottom:
			offset = m.height - cellPadding - cm.contentH
		}
		sub := ctx.child(x+cm.x+cellPadding, tr.Y+offset, inner, cm.cell.Align)
		for _, f := range cm.cell.Content {
			if err := sub.place(f); err != nil {
				return fmt.Errorf("第 %d 行单元格: %w", index, err)
			}
		}
	}
	ctx.cursorY += m.height
	return nil
}
