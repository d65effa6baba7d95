package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kapu/rinaorc-staff-bot-go/internal/app"
	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/health"
	"github.com/kapu/rinaorc-staff-bot-go/internal/platform/bootstrap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	health.Init(cfg.Version)

	logger.Info("Rinaorc staff bot starting...",
		slog.String("version", cfg.Version),
		slog.String("log_level", cfg.Logging.Level),
		slog.Duration("poll_interval", cfg.Poll.Interval),
		slog.Bool("notify", cfg.Notification.Enabled),
		slog.Bool("history", cfg.History.Enabled),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Build)
	runtime, err := app.BuildRuntime(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", slog.Any("error", err))
		os.Exit(1)
	}
	defer runtime.Close()

	runtime.Run()
}
