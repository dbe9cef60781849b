// Command storesync-tail prints the notifications storesync forwards to NATS.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/storesync/internal/config"
	"github.com/abgdnv/storesync/internal/tail"
	"github.com/abgdnv/storesync/pkg/bootstrap"
	"github.com/abgdnv/storesync/pkg/config/configloader"
	"github.com/abgdnv/storesync/pkg/nats"
)

const serviceName = "storesync"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("tail failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.TailConfig](serviceName, configloader.DefaultOptions(serviceName))
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	// logs go to stderr, notifications to stdout
	logger := bootstrap.NewLoggerTo(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return err
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return err
	}

	logger.Info("Tailing notifications", slog.String("stream", cfg.Nats.Stream), slog.String("subject", cfg.Nats.Subject))
	err = tail.Start(ctx, js, cfg.Nats, cfg.Subscriber, tail.NewPrinter(os.Stdout, logger), logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
