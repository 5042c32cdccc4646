package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"autotile/internal/logger"
)

// Config holds all application configuration values
type Config struct {
	Tileset  TilesetConfig  `yaml:"tileset"`
	Resolve  ResolveConfig  `yaml:"resolve"`
	Generate GenerateConfig `yaml:"generate"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TilesetConfig struct {
	Descriptor string `yaml:"descriptor"` // .tsx or .tsj
	Rules      string `yaml:"rules"`
}

type ResolveConfig struct {
	FaultPolicy string `yaml:"fault_policy"` // abort or substitute
	Decoration  bool   `yaml:"decoration"`
	Edge        string `yaml:"edge"` // open or wrap, for generated maps
	Workers     int    `yaml:"workers"`
}

type GenerateConfig struct {
	Seed           int64   `yaml:"seed"`
	Rows           int     `yaml:"rows"`
	Cols           int     `yaml:"cols"`
	ContinentScale float64 `yaml:"continent_scale"`
	Octaves        int32   `yaml:"octaves"`
	Alpha          float64 `yaml:"alpha"`
	Beta           float64 `yaml:"beta"`
	BrushSize      float64 `yaml:"brush_size"`
}

type ViewerConfig struct {
	WindowTitle  string `yaml:"window_title"`
	ScreenWidth  int    `yaml:"screen_width"`
	ScreenHeight int    `yaml:"screen_height"`
	Zoom         int    `yaml:"zoom"`
	ShowHUD      bool   `yaml:"show_hud"`
}

type ServerConfig struct {
	Listen      string `yaml:"listen"`
	HostKeyPath string `yaml:"host_key_path"`
	Map         string `yaml:"map"` // empty means a generated map
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// FileConfig converts the file settings for the logger package.
func (l LoggingConfig) FileConfig() logger.FileConfig {
	return logger.FileConfig{
		Path:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

// Default returns the built-in configuration. Files and flags override it.
func Default() *Config {
	fc := logger.DefaultFileConfig("")
	return &Config{
		Tileset: TilesetConfig{
			Descriptor: "assets/sprites/tiles.tsx",
			Rules:      "assets/autotile.yaml",
		},
		Resolve: ResolveConfig{
			FaultPolicy: "abort",
			Decoration:  true,
			Edge:        "open",
		},
		Generate: GenerateConfig{
			Seed:           0xdead,
			Rows:           48,
			Cols:           64,
			ContinentScale: 0.5,
			Octaves:        6,
			Alpha:          2,
			Beta:           2.25,
			BrushSize:      5,
		},
		Viewer: ViewerConfig{
			WindowTitle:  "autotile viewer",
			ScreenWidth:  1024,
			ScreenHeight: 768,
			Zoom:         2,
			ShowHUD:      true,
		},
		Server: ServerConfig{
			Listen:      ":2222",
			HostKeyPath: "autotile_host_ed25519",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  fc.MaxSizeMB,
			MaxBackups: fc.MaxBackups,
			MaxAgeDays: fc.MaxAgeDays,
			Compress:   fc.Compress,
		},
	}
}

// LoadConfig reads filename on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads filename when it exists and falls back to the
// defaults otherwise.
func LoadConfigOrDefault(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadConfig(filename)
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	cfg, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

// Validate checks values that have a fixed set of choices or must be positive.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Resolve.FaultPolicy) {
	case "", "abort", "substitute":
	default:
		return fmt.Errorf("resolve.fault_policy %q must be abort or substitute", c.Resolve.FaultPolicy)
	}
	switch strings.ToLower(c.Resolve.Edge) {
	case "", "open", "wrap":
	default:
		return fmt.Errorf("resolve.edge %q must be open or wrap", c.Resolve.Edge)
	}
	if c.Generate.Rows <= 0 || c.Generate.Cols <= 0 {
		return fmt.Errorf("generate size %dx%d must be positive", c.Generate.Rows, c.Generate.Cols)
	}
	if c.Generate.Octaves <= 0 {
		return fmt.Errorf("generate.octaves must be positive")
	}
	if c.Viewer.Zoom <= 0 {
		return fmt.Errorf("viewer.zoom must be positive")
	}
	if c.Tileset.Descriptor == "" {
		return fmt.Errorf("tileset.descriptor is required")
	}
	return nil
}
