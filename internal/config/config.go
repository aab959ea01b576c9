// Package config loads the agent's settings
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

// EnvPrefix is prepended to every environment override, e.g.
// PRINT_AGENT_SERVER_PORT
const EnvPrefix = "PRINT_AGENT"

// Config holds all agent configuration
type Config struct {
	Server   ServerConfig
	Printers PrintersConfig
	Render   RenderConfig
	Log      LogConfig
	UI       UIConfig
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host string
	Port int
}

// PrintersConfig holds printer discovery settings
type PrintersConfig struct {
	CacheFile       string
	RefreshInterval time.Duration // 0 disables periodic refresh
	ScanUSB         bool
	ScanSerial      bool
	RawDots         int // image width sent to raw ESC/POS printers
}

// RenderConfig holds receipt rendering settings
type RenderConfig struct {
	PaperWidth  string
	ArtifactDir string
	Timezone    string
	FontRegular string
	FontBold    string
	LogoPath    string
	FooterCode  string // none, barcode, qrcode
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// UIConfig holds operator interface settings
type UIConfig struct {
	TUI bool
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with PRINT_AGENT_ prefix (e.g., PRINT_AGENT_SERVER_PORT)
// 2. configFile, or print-agent.toml found in the search path
// 3. Built-in defaults
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("print-agent")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir := executableDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "print-agent"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Printers: PrintersConfig{
			CacheFile:       v.GetString("printers.cache_file"),
			RefreshInterval: v.GetDuration("printers.refresh_interval"),
			ScanUSB:         v.GetBool("printers.scan_usb"),
			ScanSerial:      v.GetBool("printers.scan_serial"),
			RawDots:         v.GetInt("printers.raw_dots"),
		},
		Render: RenderConfig{
			PaperWidth:  v.GetString("render.paper_width"),
			ArtifactDir: v.GetString("render.artifact_dir"),
			Timezone:    v.GetString("render.timezone"),
			FontRegular: v.GetString("render.font_regular"),
			FontBold:    v.GetString("render.font_bold"),
			LogoPath:    v.GetString("render.logo_path"),
			FooterCode:  v.GetString("render.footer_code"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		UI: UIConfig{
			TUI: v.GetBool("ui.tui"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Printers.CacheFile == "" {
		cfg.Printers.CacheFile = filepath.Join(cacheDir(), "printers.json")
	}
	if cfg.Printers.RawDots == 0 {
		cfg.Printers.RawDots = 576
	}
	if cfg.Render.PaperWidth == "" {
		cfg.Render.PaperWidth = "80mm"
	}
	if cfg.Render.ArtifactDir == "" {
		cfg.Render.ArtifactDir = filepath.Join(os.TempDir(), "print-agent")
	}
	if cfg.Render.Timezone == "" {
		cfg.Render.Timezone = "Local"
	}
	if cfg.Render.FooterCode == "" {
		cfg.Render.FooterCode = "none"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Printers.RefreshInterval < 0 {
		return fmt.Errorf("printers.refresh_interval cannot be negative")
	}
	if c.Printers.RawDots < 0 {
		return fmt.Errorf("printers.raw_dots cannot be negative")
	}
	if _, ok := receiptformat.PaperPoints(c.Render.PaperWidth); !ok {
		return fmt.Errorf("render.paper_width must be 58mm, 80mm or 112mm, got %q", c.Render.PaperWidth)
	}
	switch c.Render.FooterCode {
	case "none", "barcode", "qrcode":
	default:
		return fmt.Errorf("render.footer_code must be none, barcode or qrcode, got %q", c.Render.FooterCode)
	}
	if _, err := c.Render.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Location resolves the configured time zone.
func (r RenderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("render.timezone: %w", err)
	}
	return loc, nil
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// cacheDir prefers the executable's directory when it is writable, then the
// working directory.
func cacheDir() string {
	if dir := executableDir(); dir != "" && writable(dir) {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".print-agent-write-test-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
