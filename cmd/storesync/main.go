package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/storesync/internal/app"
	"github.com/abgdnv/storesync/internal/config"
	"github.com/abgdnv/storesync/pkg/bootstrap"
	"github.com/abgdnv/storesync/pkg/config/configloader"
	"github.com/abgdnv/storesync/pkg/messaging"
	"github.com/abgdnv/storesync/pkg/nats"
	"github.com/abgdnv/storesync/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storesync"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run builds the stores, starts the control API, the notification dispatcher and optionally the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName, configloader.DefaultOptions(serviceName))
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to create tracer provider: %w", err)
	}
	meterProvider, registry, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}

	var remote messaging.Publisher
	var drainNats func() error
	if cfg.Nats.Enabled() {
		natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
		if err != nil {
			return err
		}
		js, err := nats.NewJetStreamContext(natsConn)
		if err != nil {
			return err
		}
		streamCtx, cancel := context.WithTimeout(ctx, cfg.Nats.Timeout)
		err = nats.EnsureStream(streamCtx, js, cfg.Nats.Stream, cfg.Nats.Subject)
		cancel()
		if err != nil {
			natsConn.Close()
			return err
		}
		remote = nats.NewNatsPublisher(js)
		drainNats = natsConn.Drain
		logger.Info("Notifications are forwarded to NATS", slog.String("subject", cfg.Nats.Subject))
	} else {
		logger.Info("NATS is not configured, notifications stay local")
	}

	deps, err := app.SetupDependencies(cfg, remote, logger)
	if err != nil {
		return fmt.Errorf("failed to set up application: %w", err)
	}
	metrics := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	httpServer := app.SetupHttpServer(deps, cfg, metrics)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Notification dispatcher started")
		if err := deps.Notifier.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("notification dispatcher failed: %w", err)
		}
		if dropped := deps.Notifier.Dropped(); dropped > 0 {
			logger.Warn("Notifications were dropped", slog.Int64("count", dropped))
		}
		// the dispatcher has flushed, nothing else publishes to NATS
		if drainNats != nil {
			logger.Info("Draining NATS connection")
			if err := drainNats(); err != nil {
				return fmt.Errorf("failed to drain NATS connection: %w", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Control API started", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control API failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown the control API
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down control API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr:              cfg.PProf.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	// gracefully shutdown telemetry providers
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down telemetry providers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return errors.Join(tracerProvider.Shutdown(shutdownCtx), meterProvider.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
