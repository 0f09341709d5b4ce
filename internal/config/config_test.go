package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/vanishing-point-mcp/internal/detection"
	"github.com/ironsheep/vanishing-point-mcp/internal/vanishing"
)

func TestDefaultConfig_MatchesPackageDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, vanishing.DefaultOptions(), cfg.MSAC.Options())
	assert.Equal(t, detection.DefaultSegmentOptions(), cfg.Detection.SegmentOptions())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 640, cfg.Detection.ProcessingWidth)
	assert.Empty(t, cfg.Server.MetricsAddr)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"vanishing points", func(c *Config) { c.MSAC.NumVanishingPoints = 0 }, "msac"},
		{"noise threshold", func(c *Config) { c.MSAC.NoiseThreshold = -1 }, "msac"},
		{"iterations", func(c *Config) { c.MSAC.MinIters = 50; c.MSAC.MaxIters = 10 }, "msac"},
		{"max segments", func(c *Config) { c.Detection.MaxSegments = 0 }, "detection"},
		{"edge threshold", func(c *Config) { c.Detection.EdgeThreshold = 300 }, "edge_threshold"},
		{"processing width", func(c *Config) { c.Detection.ProcessingWidth = -1 }, "processing_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "nope"
	cfg.Detection.ProcessingWidth = -5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
	assert.Contains(t, err.Error(), "processing_width")
}

func TestDetectionConfig_ClampsEdgeThreshold(t *testing.T) {
	d := DefaultConfig().Detection
	d.EdgeThreshold = 999
	assert.Equal(t, uint8(255), d.SegmentOptions().EdgeThreshold)
	d.EdgeThreshold = -3
	assert.Equal(t, uint8(0), d.SegmentOptions().EdgeThreshold)
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"warn", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"bogus", false, slog.LevelInfo},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.level, Verbose: tt.verbose}
		assert.Equal(t, tt.want, cfg.Level(), "level %q verbose %v", tt.level, tt.verbose)
	}
}

func TestLoader_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `
log_level: debug
msac:
  noise_threshold: 0.01
  num_vanishing_points: 3
  seed: 42
detection:
  max_segments: 50
  processing_width: 0
server:
  metrics_addr: ":9091"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader(nil)
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.01, cfg.MSAC.NoiseThreshold)
	assert.Equal(t, 3, cfg.MSAC.NumVanishingPoints)
	assert.Equal(t, int64(42), cfg.MSAC.Seed)
	assert.Equal(t, DefaultConfig().MSAC.MinIters, cfg.MSAC.MinIters)
	assert.Equal(t, 50, cfg.Detection.MaxSegments)
	assert.Equal(t, 0, cfg.Detection.ProcessingWidth)
	assert.Equal(t, ":9091", cfg.Server.MetricsAddr)
	assert.Equal(t, path, loader.ConfigFileUsed())
}

func TestLoader_SearchPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vpoint.yaml"), []byte("msac:\n  min_iters: 9\n"), 0o644))

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MSAC.MinIters)
}

func TestLoader_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("VPOINT_MSAC_SEED", "7")
	t.Setenv("VPOINT_DETECTION_THRESHOLD", "90")
	t.Setenv("VPOINT_LOG_LEVEL", "warn")

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.MSAC.Seed)
	assert.Equal(t, 90, cfg.Detection.Threshold)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("msac: [unclosed"), 0o644))
	_, err = NewLoader(nil).Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("msac:\n  num_vanishing_points: 0\n"), 0o644))
	_, err = NewLoader(nil).Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
