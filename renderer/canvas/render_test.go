package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/renderer"
)

func init() {
	api.DisableConfigDir()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func samplePage(n int, logo []byte) layout.Page {
	grey := layout.Color{R: 211, G: 211, B: 211, Alpha: 0.5}
	grid := &layout.Stroke{Width: 0.25 * layout.PtToMm}
	return layout.Page{
		Number: n,
		Width:  layout.A4.Width,
		Height: layout.A4.Height,
		Texts: []layout.TextBox{{
			Content: "Facture N°: 42", X: 25.4, Y: 20, Width: 159.2,
			FontSize: 10 * layout.PtToMm, LineHeight: 12 * layout.PtToMm,
			Align: layout.AlignCenter,
		}},
		Images: []layout.ImageBox{{Source: layout.ImageSource{Data: logo}, X: 25.4, Y: 8, Width: 17.6, Height: 17.6}},
		Tables: []layout.TableBox{{
			X: 25.4, Y: 40, Width: 159.2, Height: 12, ColumnWidths: []float64{79.6, 79.6},
			Box: grid, InnerGrid: grid,
			Rows: []layout.TableRow{
				{Y: 40, Height: 6, IsHeader: true, Background: &grey, Cells: []layout.TableCell{{X: 25.4, Width: 79.6, Span: 1}, {X: 105, Width: 79.6, Span: 1}}},
				{Index: 1, Y: 46, Height: 6, LineAbove: &layout.Stroke{Color: grey}, Cells: []layout.TableCell{{X: 25.4, Width: 159.2, Span: 2}}},
			},
		}},
	}
}

func TestRenderProducesPagesAndRunsHooks(t *testing.T) {
	logo := pngBytes(t, 8, 4)
	res := &layout.Result{
		Pages: []layout.Page{samplePage(1, logo), samplePage(2, logo), samplePage(3, logo)},
		Meta:  layout.DocumentMeta{Title: "Facture 42", Creator: "facture"},
	}

	var first, later []int
	hooks := renderer.Hooks{
		FirstPage: func(s renderer.Surface, p renderer.PageInfo) error {
			first = append(first, p.Number)
			return nil
		},
		LaterPages: func(s renderer.Surface, p renderer.PageInfo) error {
			later = append(later, p.Number)
			return renderer.WithState(s, func() error {
				return s.DrawImage(layout.ImageSource{Data: logo}, 35, 35, p.Width-70, p.Height-70)
			})
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer("").Render(&buf, res, hooks))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2, 3}, later)

	n, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRenderWithoutPages(t *testing.T) {
	err := NewRenderer("").Render(&bytes.Buffer{}, &layout.Result{}, renderer.Hooks{})
	assert.ErrorIs(t, err, renderer.ErrNoPages)
	err = NewRenderer("").Render(&bytes.Buffer{}, nil, renderer.Hooks{})
	assert.ErrorIs(t, err, renderer.ErrNoPages)
}

func TestRenderPropagatesHookError(t *testing.T) {
	boom := errors.New("boom")
	res := &layout.Result{Pages: []layout.Page{samplePage(1, nil)}}
	res.Pages[0].Images = nil

	err := NewRenderer("").Render(&bytes.Buffer{}, res, renderer.Hooks{
		FirstPage: func(renderer.Surface, renderer.PageInfo) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestRenderFailsOnUndecodableImage(t *testing.T) {
	res := &layout.Result{Pages: []layout.Page{samplePage(1, []byte("not an image"))}}
	err := NewRenderer("").Render(&bytes.Buffer{}, res, renderer.Hooks{})
	assert.ErrorIs(t, err, ErrImageSource)
}

func TestRenderReadsImagesFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), pngBytes(t, 4, 4), 0o644))

	res := &layout.Result{Pages: []layout.Page{samplePage(1, nil)}}
	res.Pages[0].Images[0].Source = layout.ImageSource{Path: "logo.png"}

	var buf bytes.Buffer
	require.NoError(t, NewRendererWithOptions(Options{BaseDir: dir, RestrictPaths: true}).Render(&buf, res, renderer.Hooks{}))
	assert.NotZero(t, buf.Len())
}

func TestResolvePathRestrictions(t *testing.T) {
	dir := t.TempDir()
	restricted := NewRendererWithOptions(Options{BaseDir: dir, RestrictPaths: true})

	got, err := restricted.resolvePath("assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "assets", "logo.png"), got)

	for _, p := range []string{"../secret.png", "assets/../../secret.png", "/etc/passwd"} {
		_, err := restricted.resolvePath(p)
		assert.ErrorIs(t, err, ErrImageSource, p)
	}

	_, err = NewRendererWithOptions(Options{RestrictPaths: true}).resolvePath("logo.png")
	assert.ErrorIs(t, err, ErrImageSource)

	got, err = NewRenderer("").resolvePath("assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "assets/logo.png", got, "relative to the working directory")

	abs := filepath.Join(dir, "logo.png")
	got, err = NewRenderer("").resolvePath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}
