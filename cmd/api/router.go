package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/library"
)

type routes struct {
	catalog  *catalog.HTTPHandler
	library  *library.HTTPHandler
	verifier httpx.TokenVerifier
	limiter  httpx.Limiter
	ready    func(ctx context.Context) error
}

func newRouter(cfg config.Config, rt routes, logger *slog.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	protected := func(h http.HandlerFunc) http.Handler {
		return httpx.AuthMiddleware(rt.verifier)(h)
	}

	router.Handle("GET /v1/auth/profile", protected(profile))
	router.Handle("GET /v1/library/search", protected(rt.catalog.Search))
	router.Handle("POST /v1/library", protected(rt.library.Add))
	router.Handle("GET /v1/library", protected(rt.library.List))
	router.Handle("GET /v1/library/{id}", protected(rt.library.Get))
	router.Handle("PATCH /v1/library/{id}/status", protected(rt.library.UpdateStatus))
	router.Handle("DELETE /v1/library/{id}", protected(rt.library.Remove))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		httpx.SecurityHeadersMiddleware,
		httpx.RateLimitMiddleware(rt.limiter, logger),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}

// profile echoes the verified caller.
func profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}
	httpx.JSONSuccess(w, r, map[string]string{"user_id": caller.UserID}, nil)
}
