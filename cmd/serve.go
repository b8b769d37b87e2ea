package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudvelous/answerd/api"
	"github.com/cloudvelous/answerd/internal/app"
	"github.com/cloudvelous/answerd/internal/config"
	"github.com/cloudvelous/answerd/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the answerd HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := initLogger()
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Stop on SIGINT/SIGTERM for graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Setup(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("closing application", "error", err)
			}
		}()

		addr := serveAddr
		if addr == "" {
			addr = cfg.HTTPAddr
		}

		srv := api.NewServer(a.Answer, a.Feedback, a.Workflows, a.Queries, a.DBPool, logger)
		return srv.Run(ctx, addr)
	},
}

// initLogger initializes the structured logger with appropriate log level.
// DEBUG set (any value) enables debug logging; logs go to stderr.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http_addr config)")
	rootCmd.AddCommand(serveCmd)
}
