package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/events"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/postgres"
)

type searcher interface {
	Search(ctx context.Context, query string) ([]catalog.Candidate, error)
}

type resolver interface {
	Resolve(ctx context.Context, c catalog.Candidate, creatorID string) (catalog.Entry, error)
}

type ledger interface {
	AddToLibrary(ctx context.Context, caller auth.Caller, bookID string) (library.Record, error)
}

// store bundles the database-backed components. close releases the pool.
type store struct {
	resolver resolver
	ledger   ledger
	close    func()
}

// commandContext lazily builds what commands need, so --help works without
// a database or API key. Tests replace the constructors.
type commandContext struct {
	configOnce sync.Once
	config     config.Config
	logger     *slog.Logger

	newSearcher func(cfg config.Config) searcher
	openStore   func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newSearcher: defaultSearcher,
		openStore:   defaultStore,
	}
}

func (c *commandContext) ensureConfig() config.Config {
	c.configOnce.Do(func() {
		c.config = config.Load()
		logger, err := logging.New(c.config.LogLevel, c.config.LogFormat, os.Stderr)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		}
		c.logger = logger
	})
	return c.config
}

func defaultSearcher(cfg config.Config) searcher {
	client := googlebooks.NewClient(cfg.GoogleBooksAPIKey, cfg.GoogleBooksBaseURL, cfg.GoogleBooksRPS, cfg.GoogleBooksMaxRetries)
	return catalog.NewGateway(client, cfg.GoogleBooksMaxResults)
}

func defaultStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	res := catalog.NewResolver(catalog.NewPostgresRepo(pool, cfg.DBTimeout))

	var publisher events.Publisher = events.NopPublisher{}
	var closePublisher func() error
	if cfg.AMQPURL != "" {
		p := events.NewAMQPPublisher(cfg.AMQPURL)
		publisher, closePublisher = p, p.Close
	}

	svc := library.NewService(library.NewPostgresRepo(pool, cfg.DBTimeout), res, publisher, logger)
	return &store{
		resolver: res,
		ledger:   svc,
		close: func() {
			if closePublisher != nil {
				_ = closePublisher()
			}
			pool.Close()
		},
	}, nil
}
