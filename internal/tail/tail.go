// Package tail follows the notifications published to NATS by storesync and prints them.
package tail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/storesync/pkg/config"
	"github.com/abgdnv/storesync/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the printer needs.
type ackableMsg interface {
	Data() []byte
	Ack() error
	Nak() error
}

// Printer writes one line per notification.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

func NewPrinter(out io.Writer, logger *slog.Logger) *Printer {
	return &Printer{out: out, logger: logger}
}

// Handle prints msg and acks it. Messages that are not notifications are nacked.
func (p *Printer) Handle(msg ackableMsg) {
	var n events.NotificationEvent
	if err := json.Unmarshal(msg.Data(), &n); err != nil {
		p.logger.Error("failed to unmarshal notification", "error", err)
		if err := msg.Nak(); err != nil {
			p.logger.Error("failed to nack message", "error", err)
		}
		return
	}

	p.mu.Lock()
	_, err := fmt.Fprintf(p.out, "%s [%s] %s\n", n.At.Format(time.RFC3339), n.Severity, n.Message)
	p.mu.Unlock()
	if err != nil {
		p.logger.Error("failed to print notification", "error", err)
	}

	if err := msg.Ack(); err != nil {
		p.logger.Error("failed to ack message", "error", err)
	}
}

// Start creates the durable consumer and runs the configured number of workers until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, natsCfg config.NATSConfig, subCfg config.SubscriberConfig, printer *Printer, logger *slog.Logger) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, natsCfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: natsCfg.Subject,
		Durable:       subCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", subCfg.Consumer, err)
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subCfg, printer, logger)
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, printer *Printer, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			logger.Error("failed to fetch notifications", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			printer.Handle(msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.Warn("notification batch ended with error", "error", err)
		}
	}
}
