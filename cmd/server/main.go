package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david/tax-radar/internal/api"
	"github.com/david/tax-radar/internal/app"
	"github.com/david/tax-radar/internal/auth"
	"github.com/david/tax-radar/internal/config"
	"github.com/david/tax-radar/internal/logger"
)

func main() {
	cfgFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	v, err := config.NewViper(*cfgFile)
	if err != nil {
		logger.New("tax-radar", "info").Error("failed to read config", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load(v)
	if err != nil {
		logger.New("tax-radar", "info").Error("invalid config", "err", err)
		os.Exit(1)
	}
	log := logger.New("tax-radar", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, store, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	pipeline, err := app.NewPipeline(ctx, cfg, store, log)
	if err != nil {
		log.Error("failed to initialize pipeline", "err", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.AdminPasswordHash, log)
	if err != nil {
		log.Error("failed to initialize auth", "err", err)
		os.Exit(1)
	}

	srv := api.NewServer(store, authService, pipeline, cfg.CORSOrigins, log)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
