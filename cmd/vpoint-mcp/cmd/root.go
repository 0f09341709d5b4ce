package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/vanishing-point-mcp/internal/config"
	"github.com/ironsheep/vanishing-point-mcp/internal/server"
)

// Build information, set by ldflags.
var (
	Commit = "unknown"
	Date   = "unknown"
)

var (
	// Configuration loaded for the running command.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"verbose":              "verbose",
	"log-level":            "log_level",
	"seed":                 "msac.seed",
	"num-vanishing-points": "msac.num_vanishing_points",
	"noise-threshold":      "msac.noise_threshold",
	"max-iters":            "msac.max_iters",
	"processing-width":     "detection.processing_width",
	"metrics-addr":         "server.metrics_addr",
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vpoint-mcp",
	Short: "Vanishing point estimation over MCP",
	Long: `An MCP server and command-line tool that finds vanishing points in images.

Line segments are detected with a Hough transform and grouped by MSAC into
vanishing points. Without a subcommand the MCP server runs on stdin/stdout.

Examples:
  vpoint-mcp
  vpoint-mcp serve --metrics-addr :9090
  vpoint-mcp detect photo.jpg --format yaml
  vpoint-mcp segments lines.yaml --num-vanishing-points 3`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vpoint-mcp version %s\n", server.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", Commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", Date)
			return nil
		}
		return runServe(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	defaults := config.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/vpoint, /etc/vpoint)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.Int64("seed", defaults.MSAC.Seed, "random seed for hypothesis sampling")
	flags.Int("num-vanishing-points", defaults.MSAC.NumVanishingPoints, "number of vanishing points to extract")
	flags.Float64("noise-threshold", defaults.MSAC.NoiseThreshold, "squared sine of the inlier angle")
	flags.Int("max-iters", defaults.MSAC.MaxIters, "maximum hypotheses per extraction round")
	flags.Int("processing-width", defaults.Detection.ProcessingWidth, "downscale images to this width before detection, 0 for full size")

	// Version flag for tests and usability
	flags.Bool("version", false, "print version information and exit")
}

// setup loads configuration with flag overrides and installs the default logger.
// Logs go to stderr since stdout carries the MCP protocol.
func setup(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := config.NewLoader(v).Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	globalConfig = cfg

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("loaded configuration", "file", used)
	}
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// GetConfig returns the configuration of the running command.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	return globalConfig
}
