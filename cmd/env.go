package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/config"
	"github.com/ar-rehman786/Axis-trade-market/internal/feed"
	"github.com/ar-rehman786/Axis-trade-market/internal/fetcher"
	"github.com/ar-rehman786/Axis-trade-market/internal/job"
	"github.com/ar-rehman786/Axis-trade-market/internal/store"
)

// env bundles the wired pipeline collaborators for a command run.
type env struct {
	Controller *job.Controller
	Market     store.Store // nil when store.driver is "none"
}

// initPipeline builds the store, fetcher, classifier, generator, and job
// controller from config.
func initPipeline(ctx context.Context, cfg *config.Config) (*env, error) {
	market, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	dispatcher := fetcher.NewDispatcher(fetcher.Options{
		UserAgent:         cfg.Fetcher.UserAgent,
		Timeout:           time.Duration(cfg.Fetcher.TimeoutSecs) * time.Second,
		MaxRetries:        cfg.Fetcher.MaxRetries,
		RequestsPerSecond: cfg.Fetcher.RequestsPerSecond,
	})

	classifier := feed.NewRuleClassifier(cfg.Feeds.ChurnThreshold, cfg.Feeds.EquityThreshold)
	generator := feed.NewCSVGenerator(cfg.Ingest.OutputDir)

	controller := job.NewController(
		job.NewMemoryStore(),
		dispatcher,
		classifier,
		generator,
		market,
		job.Options{
			DefaultChunkRows: cfg.Ingest.ChunkRows,
			SampleRows:       cfg.Ingest.SampleRows,
			FetchTimeout:     time.Duration(cfg.Ingest.FetchTimeoutSecs) * time.Second,
			Workers:          cfg.Ingest.Workers,
			OutputWorkers:    cfg.Ingest.OutputWorkers,
			TempDir:          cfg.Ingest.TempDir,
		},
	)

	return &env{Controller: controller, Market: market}, nil
}

// Close waits for in-flight jobs and releases the store.
func (e *env) Close() {
	e.Controller.WaitIdle()
	if e.Market != nil {
		if err := e.Market.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		s, err := store.NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		poolCfg := &store.PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns}
		s, err := store.NewPostgres(ctx, cfg.DatabaseURL, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}
