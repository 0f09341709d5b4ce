package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ironsheep/vanishing-point-mcp/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP requests on stdin/stdout",
	Long: `Run the MCP server, reading JSON-RPC requests from stdin and writing
responses to stdout. Logs go to stderr.

With --metrics-addr, Prometheus metrics are served over HTTP at /metrics.

Examples:
  vpoint-mcp serve
  vpoint-mcp serve --metrics-addr 127.0.0.1:9090`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "address for the Prometheus metrics endpoint (disabled when empty)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	cfg := GetConfig()
	logger := slog.Default()

	if addr := cfg.Server.MetricsAddr; addr != "" {
		metrics := startMetricsServer(addr, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown", "err", err)
			}
		}()
	}

	logger.Info("serving MCP on stdio", "version", server.Version)
	srv := server.New(*cfg, logger)
	return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
}

func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	return srv
}
