package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "print-agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "printers.json", filepath.Base(cfg.Printers.CacheFile))
	assert.Zero(t, cfg.Printers.RefreshInterval)
	assert.False(t, cfg.Printers.ScanUSB)
	assert.Equal(t, 576, cfg.Printers.RawDots)
	assert.Equal(t, "80mm", cfg.Render.PaperWidth)
	assert.Equal(t, "Local", cfg.Render.Timezone)
	assert.Equal(t, "none", cfg.Render.FooterCode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.False(t, cfg.UI.TUI)
	assert.Equal(t, "0.0.0.0:4000", cfg.Addr())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 4100

[printers]
refresh_interval = "30s"
scan_serial = true

[render]
paper_width = "58mm"
timezone = "America/Sao_Paulo"
footer_code = "qrcode"

[log]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4100", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.Printers.RefreshInterval)
	assert.True(t, cfg.Printers.ScanSerial)
	assert.Equal(t, "58mm", cfg.Render.PaperWidth)
	assert.Equal(t, "qrcode", cfg.Render.FooterCode)
	assert.Equal(t, "json", cfg.Log.Format)

	loc, err := cfg.Render.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 4100\n")
	t.Setenv("PRINT_AGENT_SERVER_PORT", "4200")
	t.Setenv("PRINT_AGENT_UI_TUI", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4200, cfg.Server.Port)
	assert.True(t, cfg.UI.TUI)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "[server]\nport = 70000\n"},
		{"paper", "[render]\npaper_width = \"100mm\"\n"},
		{"footer", "[render]\nfooter_code = \"hologram\"\n"},
		{"timezone", "[render]\ntimezone = \"Mars/Olympus\"\n"},
		{"log format", "[log]\nformat = \"xml\"\n"},
		{"interval", "[printers]\nrefresh_interval = \"-5s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
