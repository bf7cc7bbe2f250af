package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"world-protocol/internal/config"
	"world-protocol/internal/content"
	"world-protocol/internal/game"
	"world-protocol/internal/random"
	"world-protocol/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("world-protocol stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	catalog, err := content.Load(cfg.ContentPaths()...)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	rng, seed, err := random.Source(cfg.Seed)
	if err != nil {
		return err
	}
	repo, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer repo.Close()

	srv := newServer(game.New(catalog, rng), repo, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening",
		"addr", cfg.Addr,
		"seed", seed,
		"nations", len(catalog.Nations),
		"events", len(catalog.Events),
		"missions", len(catalog.Missions),
		"tech", len(catalog.Tech),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
