package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "vpoint"

	// EnvPrefix is the prefix for environment variables, e.g. VPOINT_MSAC_SEED.
	EnvPrefix = "VPOINT"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on v. A nil v gets a fresh viper instance; pass
// the instance cobra flags are bound to so flags override file values.
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v}
}

// Load reads configFile, or searches the standard locations when it is
// empty, then applies environment variables and defaults and validates.
// A missing file in the search locations is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "vpoint"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "vpoint"))
	}
	l.v.AddConfigPath("/etc/vpoint")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("msac.noise_threshold", d.MSAC.NoiseThreshold)
	l.v.SetDefault("msac.min_iters", d.MSAC.MinIters)
	l.v.SetDefault("msac.max_iters", d.MSAC.MaxIters)
	l.v.SetDefault("msac.epsilon", d.MSAC.Epsilon)
	l.v.SetDefault("msac.num_vanishing_points", d.MSAC.NumVanishingPoints)
	l.v.SetDefault("msac.max_no_updates", d.MSAC.MaxNoUpdates)
	l.v.SetDefault("msac.seed", d.MSAC.Seed)

	l.v.SetDefault("detection.threshold", d.Detection.Threshold)
	l.v.SetDefault("detection.min_length", d.Detection.MinLength)
	l.v.SetDefault("detection.max_gap", d.Detection.MaxGap)
	l.v.SetDefault("detection.max_segments", d.Detection.MaxSegments)
	l.v.SetDefault("detection.edge_threshold", d.Detection.EdgeThreshold)
	l.v.SetDefault("detection.blur_radius", d.Detection.BlurRadius)
	l.v.SetDefault("detection.processing_width", d.Detection.ProcessingWidth)

	l.v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
}
