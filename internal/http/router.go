package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Logger             *slog.Logger
}

// NewRouter builds the storefront cart API.
func NewRouter(sessions CartSessions, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxRequestBodySize <= 0 {
		opts.MaxRequestBodySize = 1 << 20 // 1MB
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cartHandler := NewCartHandler(sessions, opts.RequestTimeout, opts.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.RequestSize(opts.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionMiddleware)
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateAmount)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
	})

	return r
}
