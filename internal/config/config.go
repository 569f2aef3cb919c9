// Package config holds the gallery pipeline configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"masonry-gallery/internal/layout"
	"masonry-gallery/internal/logging"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration that reads "50ms"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("failed to parse duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds every tunable of the gallery core.
type Config struct {
	// Layout
	Columns        int     `json:"columns"` // 3..6
	Gap            float64 `json:"gap"`
	MinColumnWidth float64 `json:"min_column_width"`
	Overscan       float64 `json:"overscan"`

	// Caches (entry counts)
	ThumbCacheSize int `json:"thumb_cache_size"`
	FullCacheSize  int `json:"full_cache_size"`

	// Generation pipeline
	Workers      int      `json:"workers"`
	QueueSize    int      `json:"queue_size"`
	ResultBuffer int      `json:"result_buffer"`
	DrainBatch   int      `json:"drain_batch"`
	DrainWait    Duration `json:"drain_wait"`
	JoinTimeout  Duration `json:"join_timeout"`

	// Scheduling
	Debounce    Duration `json:"debounce"`
	SettleDelay Duration `json:"settle_delay"`

	// Single image view
	ZoomMin        float64 `json:"zoom_min"`
	ZoomMax        float64 `json:"zoom_max"`
	ZoomStep       float64 `json:"zoom_step"`
	PreloadOffsets []int   `json:"preload_offsets"`

	// Reload the catalog when the folder changes on disk
	Watch bool `json:"watch"`

	Log logging.Config `json:"log"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Columns:        4,
		Gap:            layout.DefaultGap,
		MinColumnWidth: 50,
		Overscan:       350,
		ThumbCacheSize: 500,
		FullCacheSize:  10,
		Workers:        3,
		QueueSize:      256,
		ResultBuffer:   64,
		DrainBatch:     16,
		DrainWait:      Duration(100 * time.Millisecond),
		JoinTimeout:    Duration(2 * time.Second),
		Debounce:       Duration(50 * time.Millisecond),
		SettleDelay:    Duration(150 * time.Millisecond),
		ZoomMin:        0.25,
		ZoomMax:        5.0,
		ZoomStep:       0.25,
		PreloadOffsets: []int{1, -1, 2, -2},
		Watch:          true,
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a JSON file over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges. Every error wraps ErrInvalid.
func (c Config) Validate() error {
	switch {
	case c.Columns < 1 || c.Columns > 6:
		return fmt.Errorf("%w: columns %d not in 1..6", ErrInvalid, c.Columns)
	case c.Gap < 0:
		return fmt.Errorf("%w: negative gap", ErrInvalid)
	case c.MinColumnWidth < 1:
		return fmt.Errorf("%w: min_column_width must be positive", ErrInvalid)
	case c.Overscan < 0:
		return fmt.Errorf("%w: negative overscan", ErrInvalid)
	case c.ThumbCacheSize < 1 || c.FullCacheSize < 1:
		return fmt.Errorf("%w: cache sizes must be positive", ErrInvalid)
	case c.Workers < 1 || c.Workers > 8:
		return fmt.Errorf("%w: workers %d not in 1..8", ErrInvalid, c.Workers)
	case c.QueueSize < 1 || c.ResultBuffer < 1 || c.DrainBatch < 1:
		return fmt.Errorf("%w: queue_size, result_buffer and drain_batch must be positive", ErrInvalid)
	case c.Debounce <= 0 || c.SettleDelay <= 0 || c.DrainWait <= 0 || c.JoinTimeout <= 0:
		return fmt.Errorf("%w: durations must be positive", ErrInvalid)
	case c.ZoomMin <= 0 || c.ZoomMin > 1 || c.ZoomMax < 1 || c.ZoomStep <= 0:
		return fmt.Errorf("%w: zoom range [%g, %g] step %g", ErrInvalid, c.ZoomMin, c.ZoomMax, c.ZoomStep)
	}
	for _, off := range c.PreloadOffsets {
		if off == 0 {
			return fmt.Errorf("%w: preload offset 0", ErrInvalid)
		}
	}
	return nil
}
