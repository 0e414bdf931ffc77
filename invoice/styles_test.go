package invoice

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/stylesheet"
)

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	for role := CenterBody; role <= RightHeader; role++ {
		st := s.Get(role)
		assert.Equal(t, role.String(), st.Name)
		assert.InDelta(t, layout.Pt(10), st.Size, 1e-9)
		assert.InDelta(t, layout.Pt(12), st.LineHeight, 1e-9)
	}
	assert.Equal(t, FontRegular, s.CenterBody.Font)
	assert.Equal(t, FontBold, s.LeftHeader.Font)
	assert.Equal(t, layout.AlignRight, s.RightBody.Align)
	assert.Equal(t, layout.AlignCenter, s.CenterHeader.Align)
}

func TestParseStyleRole(t *testing.T) {
	for role := CenterBody; role <= RightHeader; role++ {
		got, ok := ParseStyleRole(role.String())
		require.True(t, ok)
		assert.Equal(t, role, got)
	}
	_, ok := ParseStyleRole("footer")
	assert.False(t, ok)
}

func TestStylesApplySheet(t *testing.T) {
	sheet, err := stylesheet.ParseString(`
right-body { weight: bold; color: #ff0000 }
center-header {
  size: 14pt
  align: left
}
left-body { style: italic; line-height: 2x }
left-header { font: "embed:lmsans10-oblique" }
`)
	require.NoError(t, err)

	s := DefaultStyles()
	require.NoError(t, s.Apply(sheet))

	assert.Equal(t, FontBold, s.RightBody.Font)
	assert.Equal(t, layout.Color{R: 255}, s.RightBody.Color)
	assert.Equal(t, layout.AlignRight, s.RightBody.Align)

	assert.InDelta(t, layout.Pt(14), s.CenterHeader.Size, 1e-9)
	assert.InDelta(t, layout.Pt(14)*1.2, s.CenterHeader.LineHeight, 1e-6)
	assert.Equal(t, layout.AlignLeft, s.CenterHeader.Align)

	assert.Equal(t, FontOblique, s.LeftBody.Font)
	assert.InDelta(t, layout.Pt(20), s.LeftBody.LineHeight, 1e-9)

	require.Contains(t, s.Fonts, s.LeftHeader.Font)
	assert.Equal(t, "embed:lmsans10-oblique", s.Fonts[s.LeftHeader.Font].Src)
	assert.Equal(t, "bold", s.Fonts[s.LeftHeader.Font].Style)

	assert.Equal(t, DefaultStyles().CenterBody, s.CenterBody)
}

func TestStylesApplyLaterRuleWins(t *testing.T) {
	sheet, err := stylesheet.ParseString("left-body { align: center; size: 9pt }\nleft-body { align: right }\n")
	require.NoError(t, err)
	s := DefaultStyles()
	require.NoError(t, s.Apply(sheet))
	assert.Equal(t, layout.AlignRight, s.LeftBody.Align)
	assert.InDelta(t, layout.Pt(9), s.LeftBody.Size, 1e-9, "earlier declarations stay unless overridden")
}

func TestStylesApplyRejectsUnknownRole(t *testing.T) {
	sheet, err := stylesheet.ParseString("footer { align: left }\nleft-body { align: middle }")
	require.NoError(t, err)
	s := DefaultStyles()
	err = s.Apply(sheet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "footer")
	assert.Contains(t, err.Error(), "left-body")
}

func TestStyledDocumentRegistersFonts(t *testing.T) {
	sheet, err := stylesheet.ParseString(`center-header { font: "embed:lmsans10-regular" }`)
	require.NoError(t, err)
	s := DefaultStyles()
	require.NoError(t, s.Apply(sheet))

	doc, err := NewDocument(ToWriter(io.Discard), sampleClient(), sampleInvoice(1), sampleCompany(), Options{Styles: &s, Renderer: &stubEngine{}})
	require.NoError(t, err)
	story, err := doc.Compose()
	require.NoError(t, err)
	assert.Contains(t, story.Fonts, FontRegular)
	assert.Contains(t, story.Fonts, s.CenterHeader.Font)
	assert.Equal(t, s.CenterHeader.Font, story.Story[2].(layout.Paragraph).Style.Font)
}

func TestCustomLabels(t *testing.T) {
	labels := Labels{Title: "Invoice #${number}", TotalTVA: "VAT ${rate}:", Amount: "€${amount}"}
	doc, err := NewDocument(ToWriter(io.Discard), sampleClient(), sampleInvoice(1), sampleCompany(), Options{Labels: &labels, Renderer: &stubEngine{}})
	require.NoError(t, err)
	story, err := doc.Compose()
	require.NoError(t, err)

	assert.Equal(t, "Invoice #22/123", story.Story[2].(layout.Paragraph).Text)
	totals := story.Story[6].(*layout.Table)
	assert.Equal(t, []string{"VAT 20%:", "€50.00"}, rowTexts(t, totals.Rows[1]))
	assert.Equal(t, []string{"Total HT:", "€150.00"}, rowTexts(t, totals.Rows[0]))
}

func TestLabelsRejectUnknownPlaceholder(t *testing.T) {
	labels := Labels{Title: "Facture ${numero}"}
	_, err := NewDocument(ToWriter(io.Discard), sampleClient(), sampleInvoice(1), sampleCompany(), Options{Labels: &labels})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numero")
	assert.NoError(t, DefaultLabels().Validate())
}
