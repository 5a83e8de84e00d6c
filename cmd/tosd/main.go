// Command tosd boots the tiered object store's HTTP server: parse
// configuration, construct the engine, serve. All process-wide
// wiring lives here, following the teacher's split between a thin
// cmd/ main and the packages that do the actual work.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samcaspus/tieredstore/api"
	"github.com/samcaspus/tieredstore/config"
	"github.com/samcaspus/tieredstore/engine"
	"github.com/samcaspus/tieredstore/log"
	"github.com/samcaspus/tieredstore/store"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	log.Init(log.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})

	backend, closeBackend, err := buildBackend(cfg)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to construct storage backend")
	}
	defer closeBackend()

	eng := engine.New(backend, cfg.Thresholds)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(eng),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Logger.Info().Str("addr", cfg.ListenAddr).Msg("tosd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Fatal().Err(err).Msg("server error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildBackend(cfg *config.Config) (backend store.Backend, closeFn func(), err error) {
	switch cfg.Backend {
	case config.BackendBunt:
		b, err := store.NewBuntBackend(cfg.BuntPath)
		if err != nil {
			return nil, func() {}, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		return store.NewMemoryBackend(), func() {}, nil
	}
}
