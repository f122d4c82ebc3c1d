// Command catalog-server serves the demo storefront catalog over the same
// routes the cart service reads: GET /stock/{id} and GET /products/{id}.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/rocketcart/internal/catalog"
	"github.com/fjod/rocketcart/internal/config"
	"github.com/fjod/rocketcart/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "catalog-server",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.CatalogPort,
		Handler:      catalog.NewServer(catalog.NewSeededMemory(), log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("catalog server listening", "port", cfg.CatalogPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down catalog server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}
}
