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

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/events"
	"bookshelf/internal/httpx"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/postgres"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	logger.Info("database connection OK", "dsn", postgres.RedactDSN(cfg.DatabaseDSN))

	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	if cfg.GoogleBooksAPIKey == "" {
		logger.Warn("GOOGLE_BOOKS_API_KEY is not set, book search will fail")
	}
	books := googlebooks.NewClient(cfg.GoogleBooksAPIKey, cfg.GoogleBooksBaseURL, cfg.GoogleBooksRPS, cfg.GoogleBooksMaxRetries)
	gateway := catalog.NewGateway(books, cfg.GoogleBooksMaxResults)
	resolver := catalog.NewResolver(catalog.NewPostgresRepo(dbPool, cfg.DBTimeout))
	librarySvc := library.NewService(library.NewPostgresRepo(dbPool, cfg.DBTimeout), resolver, publisher, logger)

	handler := newRouter(cfg, routes{
		catalog:  catalog.NewHTTPHandler(gateway, logger),
		library:  library.NewHTTPHandler(librarySvc, logger),
		verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		limiter:  limiter,
		ready:    dbPool.Ping,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newLimiter uses Redis when REDIS_ADDR is set and reachable, so limits hold
// across instances. Otherwise limits are per process.
func newLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (httpx.Limiter, func()) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := rdb.Ping(pingCtx).Err()
		if err == nil {
			logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
			return httpx.NewRedisLimiter(rdb, cfg.RateLimitRPS, cfg.RateLimitBurst), func() { _ = rdb.Close() }
		}
		logger.Warn("redis unreachable, falling back to in-memory rate limiting", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
	}
	mem := httpx.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return mem, mem.Close
}

func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, func() {}
	}
	logger.Info("publishing library events to amqp")
	p := events.NewAMQPPublisher(cfg.AMQPURL)
	return p, func() { _ = p.Close() }
}
