package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"plantwatch/internal/config"
	"plantwatch/internal/engine"
	"plantwatch/internal/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := engine.New(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Run(ctx)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		logger.Logger.Info().Msg("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			logger.Logger.Error().Err(err).Msg("engine exited")
			os.Exit(1)
		}
		return
	}

	// give graceful shutdown some time
	select {
	case <-errCh:
	case <-time.After(20 * time.Second):
		logger.Logger.Warn().Msg("shutdown timeout, forcing exit")
	}
}
