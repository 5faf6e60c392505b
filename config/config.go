// Package config handles configuration loading and validation for richpad.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/burntcarrot/richpad/command"
	"github.com/burntcarrot/richpad/geom"
	"github.com/burntcarrot/richpad/layout"
	"github.com/burntcarrot/richpad/toolbar"
	"gopkg.in/yaml.v3"
)

// Config holds the client configuration.
type Config struct {
	Toolbar     ToolbarConfig `yaml:"toolbar"`
	Links       LinkConfig    `yaml:"links"`
	Images      ImageConfig   `yaml:"images"`
	Layout      LayoutConfig  `yaml:"layout"`
	InitialHTML string        `yaml:"initial_html"` // loaded into the document at startup
}

// ToolbarConfig sets the toolbar margin and the size used before it is measured.
type ToolbarConfig struct {
	Margin float64 `yaml:"margin"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type LinkConfig struct {
	Target string `yaml:"target"`
	Rel    string `yaml:"rel"`
}

type ImageConfig struct {
	Style string `yaml:"style"`
}

// LayoutConfig describes the cell grid and the visible container in cells.
type LayoutConfig struct {
	CellWidth  float64 `yaml:"cell_width"`
	CellHeight float64 `yaml:"cell_height"`
	Columns    int     `yaml:"columns"`
	Rows       int     `yaml:"rows"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := command.DefaultOptions()
	return Config{
		Toolbar: ToolbarConfig{
			Margin: toolbar.DefaultMargin,
			Width:  toolbar.DefaultWidth,
			Height: toolbar.DefaultHeight,
		},
		Links:  LinkConfig{Target: opts.LinkTarget, Rel: opts.LinkRel},
		Images: ImageConfig{Style: opts.ImageStyle},
		Layout: LayoutConfig{
			CellWidth:  layout.DefaultMetrics.CellW,
			CellHeight: layout.DefaultMetrics.CellH,
			Columns:    layout.DefaultMetrics.Cols,
			Rows:       24,
		},
	}
}

// Load reads configuration from path. An empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Toolbar.Width == 0 {
		c.Toolbar.Width = defaults.Toolbar.Width
	}
	if c.Toolbar.Height == 0 {
		c.Toolbar.Height = defaults.Toolbar.Height
	}
	if c.Layout.CellWidth == 0 {
		c.Layout.CellWidth = defaults.Layout.CellWidth
	}
	if c.Layout.CellHeight == 0 {
		c.Layout.CellHeight = defaults.Layout.CellHeight
	}
	if c.Layout.Columns == 0 {
		c.Layout.Columns = defaults.Layout.Columns
	}
	if c.Layout.Rows == 0 {
		c.Layout.Rows = defaults.Layout.Rows
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Toolbar.Margin < 0 {
		return fmt.Errorf("toolbar.margin cannot be negative")
	}
	if c.Toolbar.Width < 0 || c.Toolbar.Height < 0 {
		return fmt.Errorf("toolbar size cannot be negative")
	}
	if c.Layout.CellWidth <= 0 || c.Layout.CellHeight <= 0 {
		return fmt.Errorf("layout cell size must be positive")
	}
	if c.Layout.Columns < 1 {
		return fmt.Errorf("layout.columns must be at least 1")
	}
	if c.Layout.Rows < 1 {
		return fmt.Errorf("layout.rows must be at least 1")
	}
	return nil
}

// Positioner returns the toolbar positioner for this configuration.
func (c *Config) Positioner() toolbar.Positioner {
	return toolbar.Positioner{
		Margin:   c.Toolbar.Margin,
		Fallback: geom.Size{W: c.Toolbar.Width, H: c.Toolbar.Height},
	}
}

func (c *Config) CommandOptions() command.Options {
	return command.Options{
		LinkTarget: c.Links.Target,
		LinkRel:    c.Links.Rel,
		ImageStyle: c.Images.Style,
	}
}

func (c *Config) Metrics() layout.Metrics {
	return layout.Metrics{CellW: c.Layout.CellWidth, CellH: c.Layout.CellHeight, Cols: c.Layout.Columns}
}

// Container returns the editing container in client coordinates.
func (c *Config) Container() geom.Rect {
	return geom.Rect{
		W: float64(c.Layout.Columns) * c.Layout.CellWidth,
		H: float64(c.Layout.Rows) * c.Layout.CellHeight,
	}
}
