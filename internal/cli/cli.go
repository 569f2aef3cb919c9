// Package cli defines the command line of the gallery.
package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"masonry-gallery/internal/config"
)

// CLI is the top-level command line. Zero values leave the configuration
// file (or the defaults) in charge.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`

	Folder      string `arg:"" optional:"" type:"existingdir" help:"Image folder to open."`
	Config      string `short:"c" type:"path" help:"JSON configuration file."`
	Columns     int    `help:"Grid columns (3-6)."`
	Workers     int    `help:"Thumbnail worker goroutines."`
	ThumbCache  int    `name:"thumb-cache" help:"Thumbnails kept in memory."`
	FullCache   int    `name:"full-cache" help:"Full images kept in memory."`
	NoWatch     bool   `help:"Do not reload when the folder changes."`
	LogLevel    string `help:"Log level (debug, info, warn, error)."`
	LogFormat   string `help:"Log format (console or json)."`
	LogFile     string `type:"path" help:"Write logs to this file instead of stderr."`
	MetricsAddr string `help:"Serve Prometheus metrics on this address, e.g. :9090."`
}

// Parse parses args with the given version string.
func Parse(args []string, version string, opts ...kong.Option) (*CLI, error) {
	var c CLI
	opts = append([]kong.Option{
		kong.Name("masonry-gallery"),
		kong.Description("Browse image folders in a masonry grid."),
		kong.Vars{"version": version},
	}, opts...)
	k, err := kong.New(&c, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := k.Parse(args); err != nil {
		return nil, err
	}
	return &c, nil
}

var (
	logLevels  = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"": true, "console": true, "json": true}
)

// Load reads the configuration file and applies the flags over it.
func (c *CLI) Load() (config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return cfg, err
	}
	if !logLevels[c.LogLevel] {
		return cfg, fmt.Errorf("%w: log level %q", config.ErrInvalid, c.LogLevel)
	}
	if !logFormats[c.LogFormat] {
		return cfg, fmt.Errorf("%w: log format %q", config.ErrInvalid, c.LogFormat)
	}
	c.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// Apply copies the flags that were set onto cfg.
func (c *CLI) Apply(cfg *config.Config) {
	if c.Columns != 0 {
		cfg.Columns = c.Columns
	}
	if c.Workers != 0 {
		cfg.Workers = c.Workers
	}
	if c.ThumbCache != 0 {
		cfg.ThumbCacheSize = c.ThumbCache
	}
	if c.FullCache != 0 {
		cfg.FullCacheSize = c.FullCache
	}
	if c.NoWatch {
		cfg.Watch = false
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if c.LogFile != "" {
		cfg.Log.OutputPath = c.LogFile
	}
}
