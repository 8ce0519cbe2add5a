package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// Config is the process configuration of the editor tooling.
type Config struct {
	BaseURL     string            `yaml:"base_url" toml:"base_url"`
	Routes      map[string]string `yaml:"routes" toml:"routes"`
	Assets      AssetsConfig      `yaml:"assets" toml:"assets"`
	DatePicker  DatePickerConfig  `yaml:"date_picker" toml:"date_picker"`
	ImagePicker ImagePickerConfig `yaml:"image_picker" toml:"image_picker"`
	Log         LogConfig         `yaml:"log" toml:"log"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
}

type AssetsConfig struct {
	PageSize int `yaml:"page_size" toml:"page_size"`
}

type DatePickerConfig struct {
	Format   string `yaml:"format" toml:"format"`
	ViewMode string `yaml:"view_mode" toml:"view_mode"`
}

type ImagePickerConfig struct {
	ShowLabel bool `yaml:"show_label" toml:"show_label"`
}

type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{PageSize: 50},
		DatePicker: DatePickerConfig{
			Format:   "yyyy-mm-dd",
			ViewMode: "years",
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if baseURL := os.Getenv("EDITORS_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if level := os.Getenv("EDITORS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if size := os.Getenv("EDITORS_PAGE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			cfg.Assets.PageSize = n
		}
	}

	if cfg.Assets.PageSize <= 0 {
		cfg.Assets.PageSize = Default().Assets.PageSize
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

// RouteTable merges configured route patterns over the defaults.
func (c *Config) RouteTable() api.Routes {
	routes := api.DefaultRoutes().With(c.Routes)
	routes.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return routes
}

// Widgets returns the picker configuration.
func (c *Config) Widgets() widgets.Config {
	return widgets.Config{
		DateFormat:     c.DatePicker.Format,
		DateViewMode:   c.DatePicker.ViewMode,
		ShowImageLabel: c.ImagePicker.ShowLabel,
	}
}
