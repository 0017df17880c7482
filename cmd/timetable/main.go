package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/app"
	"github.com/Freeeeeet/school_timetable/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Sugar().Infow("Starting timetable service",
		"environment", cfg.Environment,
		"storage", cfg.StorageDriver,
		"http_addr", cfg.HTTPAddr,
		"bot_enabled", cfg.TelegramToken != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("Application stopped")
}
