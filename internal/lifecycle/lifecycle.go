// Package lifecycle implements the request lifecycle shared by every store operation:
// idle -> pending -> fulfilled | rejected. Settled phases are ready for the next invocation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	storeerrors "github.com/abgdnv/storesync/internal/errors"
	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/abgdnv/storesync/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Phase int

const (
	Idle Phase = iota
	Pending
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = Idle
	case "pending":
		*p = Pending
	case "fulfilled":
		*p = Fulfilled
	case "rejected":
		*p = Rejected
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Settled reports whether an invocation has completed.
func (p Phase) Settled() bool {
	return p == Fulfilled || p == Rejected
}

// Status is the loading/error pair every store shares across its operations.
// Whichever transition lands last writes it.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error"`
}

// Transition returns the status after entering phase p. message is only used for Rejected.
// Pending keeps the previous error so the last good view stays visible while refetching.
func (s Status) Transition(p Phase, message string) Status {
	switch p {
	case Pending:
		s.Loading = true
	case Fulfilled:
		s.Loading = false
		s.Error = ""
	case Rejected:
		s.Loading = false
		s.Error = message
	}
	return s
}

// Phases tracks the last phase of each operation of a store independently.
// It is treated as an immutable value: With returns a modified copy.
type Phases map[string]Phase

func (p Phases) With(op string, phase Phase) Phases {
	next := make(Phases, len(p)+1)
	for k, v := range p {
		next[k] = v
	}
	next[op] = phase
	return next
}

// Of returns the phase of op, Idle if it never ran.
func (p Phases) Of(op string) Phase {
	return p[op]
}

// Message normalizes err into the text recorded in the store and shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, storeerrors.ErrInvalidInput) {
		return err.Error()
	}
	return gateway.Message(err)
}

// InvalidInput wraps a local validation failure so it is classified as a rejection.
func InvalidInput(err error) error {
	return fmt.Errorf("%w: %w", storeerrors.ErrInvalidInput, err)
}

// Runner drives operations of one store through the lifecycle and records logs, spans and metrics for them.
type Runner struct {
	store  string
	logger *slog.Logger
	tracer trace.Tracer
	ops    metric.Int64Counter
}

// NewRunner creates a Runner for the store with the given name.
func NewRunner(store string, log *slog.Logger) *Runner {
	meter := otel.Meter("storesync")
	ops, err := meter.Int64Counter("storesync_operations", metric.WithDescription("Store operations by outcome"))
	if err != nil {
		panic(fmt.Sprintf("failed to create storesync_operations counter: %v", err))
	}
	return &Runner{
		store:  store,
		logger: log.With("component", store+"-store"),
		tracer: otel.Tracer("storesync/" + store),
		ops:    ops,
	}
}

// Logger returns the store logger.
func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

// Execute runs one invocation of op. apply is called with Pending before call, then with
// Fulfilled and the payload, or Rejected and the error. The error is returned as well so callers
// can chain follow-up work; the store state is correct whether or not it is handled.
func Execute[T any](ctx context.Context, r *Runner, op string, apply func(phase Phase, payload T, err error), call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx = logger.WithOperation(ctx, logger.Operation{ID: uuid.NewString(), Store: r.store, Name: op})
	ctx, span := r.tracer.Start(ctx, r.store+"."+op)
	defer span.End()

	apply(Pending, zero, nil)
	r.logger.DebugContext(ctx, "Operation pending")

	payload, err := call(ctx)
	if err != nil {
		apply(Rejected, zero, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, Message(err))
		r.record(ctx, op, Rejected)
		r.logger.WarnContext(ctx, "Operation rejected", "error", err)
		return zero, err
	}
	apply(Fulfilled, payload, nil)
	r.record(ctx, op, Fulfilled)
	r.logger.DebugContext(ctx, "Operation fulfilled")
	return payload, nil
}

func (r *Runner) record(ctx context.Context, op string, phase Phase) {
	r.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", r.store),
		attribute.String("op", op),
		attribute.String("outcome", phase.String()),
	))
}
