package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "facture", cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ".", cfg.Render.AssetsDir)
	assert.Zero(t, cfg.Render.Gap)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 4*1024*1024, cfg.HTTP.BodyLimit)
	assert.Empty(t, cfg.Labels.Title)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FACTURE_APP_ENV", "production")
	t.Setenv("FACTURE_HTTP_PORT", "9090")
	t.Setenv("FACTURE_RENDER_ASSETS_DIR", "/srv/assets")
	t.Setenv("FACTURE_RENDER_GAP", "5.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "/srv/assets", cfg.Render.AssetsDir)
	assert.InDelta(t, 5.5, cfg.Render.Gap, 1e-9)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: billing
log:
  level: debug
render:
  styles: styles/invoice.sheet
  fonts:
    serif: /usr/share/fonts/serif.ttf
http:
  port: 8443
labels:
  title: "Invoice #${number}"
  total_ttc: "Total due:"
`)
	t.Setenv("FACTURE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "billing", cfg.App.Name)
	assert.Equal(t, "warn", cfg.Log.Level, "env wins over the file")
	assert.Equal(t, "styles/invoice.sheet", cfg.Render.Styles)
	assert.Equal(t, map[string]string{"serif": "/usr/share/fonts/serif.ttf"}, cfg.Render.Fonts)
	assert.Equal(t, 8443, cfg.HTTP.Port)
	assert.Equal(t, "Invoice #${number}", cfg.Labels.Title)
	assert.Equal(t, "Total due:", cfg.Labels.TotalTTC)
	assert.Empty(t, cfg.Labels.Amount)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 70000
labels:
  title: "Facture ${numero}"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
	assert.Contains(t, err.Error(), "numero")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
