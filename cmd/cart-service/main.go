package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/rocketcart/internal/cart"
	"github.com/fjod/rocketcart/internal/catalog"
	"github.com/fjod/rocketcart/internal/config"
	h "github.com/fjod/rocketcart/internal/http"
	"github.com/fjod/rocketcart/internal/logger"
	"github.com/fjod/rocketcart/internal/notify"
)

const serviceName = "cart-service"

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: serviceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cart service stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("cart service stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	tp := newTracerProvider()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer provider shutdown failed", "err", err)
		}
	}()

	snapshots, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			log.Warn("closing snapshot store failed", "err", err)
		}
	}()

	var notifier notify.Notifier = notify.NewLog(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafka(log, cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kafkaNotifier.Close()
		notifier = notify.Fanout{notifier, kafkaNotifier}
		log.Info("publishing cart notifications to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	sessions := cart.NewSessions(cfg.CartKey, cfg.SessionCapacity, snapshots, newCatalog(cfg, log), notifier, log)

	router := h.NewRouter(sessions, h.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthSvc := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSvc)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)
	healthSvc.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSvc.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc health server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down cart service")
		healthSvc.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newCatalog(cfg config.Config, log *slog.Logger) catalog.Catalog {
	if cfg.CatalogMode == "memory" {
		log.Info("using built-in demo catalog")
		return catalog.NewSeededMemory()
	}

	log.Info("using remote catalog", "url", cfg.CatalogURL)
	failures := cfg.BreakerFailures
	if failures < 0 {
		failures = 0
	}
	return catalog.NewHTTPClient(catalog.Options{
		BaseURL:         cfg.CatalogURL,
		Timeout:         cfg.CatalogTimeout,
		BreakerFailures: uint32(failures),
		BreakerOpenFor:  cfg.BreakerOpenFor,
		Logger:          log,
	})
}

// newTracerProvider installs a tracer provider so every request carries a
// trace id through logs and outgoing catalog calls. No exporter is attached.
func newTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp
}
