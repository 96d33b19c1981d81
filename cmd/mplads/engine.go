package main

import (
	"fmt"

	"mplads/internal/cache"
	"mplads/internal/config"
	"mplads/internal/jobs"
	"mplads/internal/logging"
	"mplads/internal/query"
	"mplads/internal/storage"
)

// engine bundles everything a command needs to serve queries.
type engine struct {
	cfg    *config.Config
	logger *logging.Logger
	db     *storage.DB
	stores *storage.Stores
	cache  *cache.Cache
	facade *query.Facade
	jobs   *jobs.Store
}

// openEngine loads config from the data root and wires the full stack.
// Callers must Close when done.
func openEngine() (*engine, error) {
	cfg, err := config.LoadConfig(dataRootFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
	})

	db, err := storage.Open(dataRootFlag, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	stores := storage.NewStores(db, logger, cfg.Query.MaxRowsPerAggregation)
	c := cache.New(cfg.Cache, logger)
	facade := query.NewFacade(stores, c, cfg, logger, query.Options{})

	return &engine{
		cfg:    cfg,
		logger: logger,
		db:     db,
		stores: stores,
		cache:  c,
		facade: facade,
	}, nil
}

func (e *engine) jobStore() *jobs.Store {
	if e.jobs == nil {
		e.jobs = jobs.NewStore(e.db, e.logger)
	}
	return e.jobs
}

func (e *engine) Close() error {
	return e.db.Close()
}
