package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/facture/invoice"
	"github.com/ByLCY/facture/logger"
)

func init() {
	api.DisableConfigDir()
}

const samplePayload = `{
  "client": {"name": "Jane Doe", "phone": "0600000000"},
  "invoice": {
    "number": "22/123",
    "date": "28/07/2022 14:06",
    "columns": ["Designation", "Quantité", "Prix Unitaire", "Total"],
    "items": [
      {"name": "Product1", "quantity": "12", "unitPrice": "15.00", "total": "180.00"},
      {"name": "Product2", "quantity": "1", "unitPrice": "20.00", "total": "20.00"}
    ],
    "totalHT": "200.00",
    "totalTVA": "40.00",
    "totalTTC": "240.00",
    "taxRate": "20%"
  },
  "company": {"name": "Acme", "siret": "123654789", "qrCode": {"qr": "https://acme.test"}}
}`

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error", Out: &bytes.Buffer{}})
}

func TestPayloadFixtureMatchesModel(t *testing.T) {
	var p invoice.Payload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &p))
	require.NoError(t, p.Validate())
	assert.Len(t, p.Invoice.Items, 2)
	assert.Equal(t, "https://acme.test", p.Company.QRCode.QR)
}

func TestRunWritesPDFAndDebug(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(in, []byte(samplePayload), 0o644))
	sheet := filepath.Join(dir, "invoice.sheet")
	require.NoError(t, os.WriteFile(sheet, []byte("center-header { size: 12pt; weight: bold }\n"), 0o644))

	args := renderArgs{
		in:     in,
		out:    filepath.Join(dir, "out", "invoice.pdf"),
		styles: sheet,
		title:  "Facture 22/123",
		assets: dir,
		debug:  filepath.Join(dir, "debug", "layout.json"),
	}
	require.NoError(t, run(args, nil, nil, testLogger()))

	data, err := os.ReadFile(args.out)
	require.NoError(t, err)
	require.NoError(t, api.Validate(bytes.NewReader(data), nil))

	debug, err := os.ReadFile(args.debug)
	require.NoError(t, err)
	assert.Contains(t, string(debug), "Product2")
}

func TestRunStdinToStdout(t *testing.T) {
	var out bytes.Buffer
	args := renderArgs{in: "-", out: "-"}
	require.NoError(t, run(args, strings.NewReader(samplePayload), &out, testLogger()))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))
}

func TestRunReportsInvalidInput(t *testing.T) {
	dir := t.TempDir()

	err := run(renderArgs{in: filepath.Join(dir, "absent.json"), out: "-"}, nil, nil, testLogger())
	assert.Error(t, err)

	err = run(renderArgs{in: "-", out: "-"}, strings.NewReader(`{"client": {}}`), &bytes.Buffer{}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrMissingField)

	sheet := filepath.Join(dir, "bad.sheet")
	require.NoError(t, os.WriteFile(sheet, []byte("footer { align: left }"), 0o644))
	err = run(renderArgs{in: "-", out: "-", styles: sheet}, strings.NewReader(samplePayload), &bytes.Buffer{}, testLogger())
	assert.ErrorContains(t, err, "footer")
}

func TestAppRequiresInput(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run([]string{"facture", "render"})
	assert.Error(t, err)
}
