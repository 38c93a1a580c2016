package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"marketdata/internal/app"
	"marketdata/internal/config"
	"marketdata/internal/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	if cfg.NeedsSSM() {
		client, err := config.NewSSMClient(ctx)
		if err != nil {
			return err
		}
		if err := cfg.ResolveSecrets(ctx, client); err != nil {
			return err
		}
	}

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("close", zap.Error(err))
		}
	}()

	go a.Poller.Run(ctx)

	srv := a.Server()
	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", zap.String("addr", srv.Addr), zap.Any("providers", a.Aggregator.Providers()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
