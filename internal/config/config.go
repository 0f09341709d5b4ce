// Package config holds the vpoint-mcp configuration and loads it from files,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ironsheep/vanishing-point-mcp/internal/detection"
	"github.com/ironsheep/vanishing-point-mcp/internal/vanishing"
)

// Config represents the complete application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// MSAC configures vanishing point estimation.
	MSAC MSACConfig `mapstructure:"msac" yaml:"msac" json:"msac"`

	// Detection configures the line segment detector.
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection" json:"detection"`

	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// MSACConfig mirrors vanishing.Options plus the random seed.
type MSACConfig struct {
	NoiseThreshold     float64 `mapstructure:"noise_threshold" yaml:"noise_threshold" json:"noise_threshold"`
	MinIters           int     `mapstructure:"min_iters" yaml:"min_iters" json:"min_iters"`
	MaxIters           int     `mapstructure:"max_iters" yaml:"max_iters" json:"max_iters"`
	Epsilon            float64 `mapstructure:"epsilon" yaml:"epsilon" json:"epsilon"`
	NumVanishingPoints int     `mapstructure:"num_vanishing_points" yaml:"num_vanishing_points" json:"num_vanishing_points"`
	MaxNoUpdates       int     `mapstructure:"max_no_updates" yaml:"max_no_updates" json:"max_no_updates"`

	// Seed seeds the sampler. Equal seeds on equal input give equal results.
	Seed int64 `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// DetectionConfig mirrors detection.SegmentOptions plus the processing width.
type DetectionConfig struct {
	Threshold     int     `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	MinLength     int     `mapstructure:"min_length" yaml:"min_length" json:"min_length"`
	MaxGap        int     `mapstructure:"max_gap" yaml:"max_gap" json:"max_gap"`
	MaxSegments   int     `mapstructure:"max_segments" yaml:"max_segments" json:"max_segments"`
	EdgeThreshold int     `mapstructure:"edge_threshold" yaml:"edge_threshold" json:"edge_threshold"`
	BlurRadius    float64 `mapstructure:"blur_radius" yaml:"blur_radius" json:"blur_radius"`

	// ProcessingWidth is the width images are shrunk to before detection.
	// Zero keeps the original size.
	ProcessingWidth int `mapstructure:"processing_width" yaml:"processing_width" json:"processing_width"`
}

// ServerConfig configures the MCP server process.
type ServerConfig struct {
	// MetricsAddr is the listen address of the Prometheus endpoint, e.g.
	// ":9090". Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() Config {
	opts := vanishing.DefaultOptions()
	seg := detection.DefaultSegmentOptions()
	return Config{
		LogLevel: "info",
		MSAC: MSACConfig{
			NoiseThreshold:     opts.NoiseThreshold,
			MinIters:           opts.MinIters,
			MaxIters:           opts.MaxIters,
			Epsilon:            opts.Epsilon,
			NumVanishingPoints: opts.NumVanishingPoints,
			MaxNoUpdates:       opts.MaxNoUpdates,
			Seed:               1,
		},
		Detection: DetectionConfig{
			Threshold:       seg.Threshold,
			MinLength:       seg.MinLength,
			MaxGap:          seg.MaxGap,
			MaxSegments:     seg.MaxSegments,
			EdgeThreshold:   int(seg.EdgeThreshold),
			BlurRadius:      seg.BlurRadius,
			ProcessingWidth: 640,
		},
	}
}

// Options converts the MSAC section to estimator options.
func (m MSACConfig) Options() vanishing.Options {
	return vanishing.Options{
		NoiseThreshold:     m.NoiseThreshold,
		MinIters:           m.MinIters,
		MaxIters:           m.MaxIters,
		Epsilon:            m.Epsilon,
		NumVanishingPoints: m.NumVanishingPoints,
		MaxNoUpdates:       m.MaxNoUpdates,
	}
}

// SegmentOptions converts the detection section to detector options.
// EdgeThreshold is clamped to the 8-bit range.
func (d DetectionConfig) SegmentOptions() detection.SegmentOptions {
	edge := d.EdgeThreshold
	if edge < 0 {
		edge = 0
	}
	if edge > math.MaxUint8 {
		edge = math.MaxUint8
	}
	return detection.SegmentOptions{
		Threshold:     d.Threshold,
		MinLength:     d.MinLength,
		MaxGap:        d.MaxGap,
		MaxSegments:   d.MaxSegments,
		EdgeThreshold: uint8(edge),
		BlurRadius:    d.BlurRadius,
	}
}

// Validate checks every section and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.MSAC.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("msac: %w", err))
	}
	if err := c.Detection.SegmentOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("detection: %w", err))
	}
	if c.Detection.EdgeThreshold < 0 || c.Detection.EdgeThreshold > math.MaxUint8 {
		errs = append(errs, fmt.Errorf("detection: edge_threshold must be in [0, 255], got %d", c.Detection.EdgeThreshold))
	}
	if c.Detection.ProcessingWidth < 0 {
		errs = append(errs, fmt.Errorf("detection: processing_width must not be negative, got %d", c.Detection.ProcessingWidth))
	}
	return errors.Join(errs...)
}

// Level returns the slog level the configuration asks for. Verbose wins over
// LogLevel; unknown levels fall back to info.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
}
