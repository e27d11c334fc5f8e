package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livenewsmap/internal/cache"
	"livenewsmap/internal/classify"
	"livenewsmap/internal/config"
	"livenewsmap/internal/feed"
	"livenewsmap/internal/logger"
	"livenewsmap/internal/news"
	"livenewsmap/internal/region"
	"livenewsmap/internal/retry"
	"livenewsmap/internal/server"
)

func main() {
	log := logger.New("newsmapd")

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	regions, closeStore, err := buildRegionStore(cfg, log)
	if err != nil {
		log.Error("init region store", slog.Any("err", err))
		os.Exit(1)
	}
	defer closeStore()

	lexicon := classify.DefaultLexicon()
	if cfg.LexiconPath != "" {
		lexicon, err = classify.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			log.Error("load lexicon", slog.String("path", cfg.LexiconPath), slog.Any("err", err))
			os.Exit(1)
		}
	}

	fetcher := feed.NewFetcher(cfg.FeedTimeout, retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})

	results := cache.New(cfg.CacheTTL, cfg.CacheSweep)
	defer results.Stop()

	aggregator := news.NewAggregator(news.AggregatorOptions{
		Regions:      regions,
		Fetcher:      fetcher,
		Classifier:   classify.New(lexicon),
		Cache:        results,
		Log:          log,
		Concurrency:  cfg.FetchConcurrency,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	})

	srv := server.New(log, regions, aggregator)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

func buildRegionStore(cfg *config.Config, log *slog.Logger) (region.Store, func(), error) {
	if cfg.PostgresDSN != "" {
		store, err := region.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("regions served from postgres")
		return store, func() { _ = store.Close() }, nil
	}

	store, err := region.LoadFile(cfg.RegionsPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("regions served from file", slog.String("path", cfg.RegionsPath))
	return store, func() {}, nil
}
