package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"dailybread/internal/app"
	"dailybread/internal/config"
	"dailybread/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, _, _, err := config.Load(os.Getenv("DAILYBREAD_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "err", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to wire pipeline", logging.Error(err))
		os.Exit(1)
	}

	h, err := newHandler(a.Day, cfg.Lambda.Modes, cfg.Lambda.DayOffset, logger)
	if err != nil {
		logger.Error("failed to create handler", logging.Error(err))
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
