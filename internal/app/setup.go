// Package app wires the stores, the gateway and the notification channel into the storesync application.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storesync/internal/cart"
	"github.com/abgdnv/storesync/internal/config"
	"github.com/abgdnv/storesync/internal/notify"
	"github.com/abgdnv/storesync/internal/order"
	"github.com/abgdnv/storesync/internal/session"
	"github.com/abgdnv/storesync/internal/transport/rest"
	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/abgdnv/storesync/pkg/messaging"
	"github.com/abgdnv/storesync/pkg/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// recentNotifications is how many notifications GET /notifications returns.
const recentNotifications = 20

type Dependencies struct {
	Cart         *cart.Store
	Orders       *order.Store
	Session      *session.Session
	Orchestrator *Orchestrator
	Notifier     *notify.Channel
	Recent       *notify.Recent
	Bus          *messaging.Bus
	Logger       *slog.Logger
}

// SetupDependencies builds the application graph. remote is the NATS publisher used as an extra
// notification sink; it is nil when NATS is not configured.
func SetupDependencies(cfg *config.Config, remote messaging.Publisher, logger *slog.Logger, opts ...gateway.Option) (*Dependencies, error) {
	sess := session.New()
	if cfg.Gateway.Token != "" {
		if _, err := sess.Set(cfg.Gateway.Token); err != nil {
			return nil, fmt.Errorf("configured gateway token: %w", err)
		}
	}

	opts = append([]gateway.Option{
		gateway.WithTokenSource(sess),
		gateway.WithCircuitBreaker(cfg.CircuitBreaker),
	}, opts...)
	gw, err := gateway.New(cfg.Gateway, logger, opts...)
	if err != nil {
		return nil, err
	}

	recent := notify.NewRecent(recentNotifications)
	sinks := []notify.Sink{notify.NewLogSink(logger), recent}
	if remote != nil {
		sinks = append(sinks, notify.NewPublisherSink(remote, cfg.Nats.Subject))
	}
	notifier := notify.NewChannel(cfg.Notify.QueueSize, logger, sinks...)

	bus := messaging.NewBus()
	cartStore := cart.NewStore(cart.NewHTTPAPI(gw), notifier, logger)
	orderStore := order.NewStore(order.NewHTTPAPI(gw), notifier, bus, logger)

	orchestrator := NewOrchestrator(cartStore, orderStore, sess, logger)
	orchestrator.Register(bus)

	return &Dependencies{
		Cart:         cartStore,
		Orders:       orderStore,
		Session:      sess,
		Orchestrator: orchestrator,
		Notifier:     notifier,
		Recent:       recent,
		Bus:          bus,
		Logger:       logger,
	}, nil
}

// SetupHttpHandler builds the control API router. metrics is mounted on /metrics when not nil.
func SetupHttpHandler(deps *Dependencies, metrics http.Handler) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	api := rest.NewHandler(deps.Cart, deps.Orders, deps.Orchestrator, deps.Recent, deps.Logger)
	api.RegisterRoutes(mux)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return otelhttp.NewHandler(mux, "storesync")
}

// SetupHttpServer creates the HTTP server of the control API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config, metrics http.Handler) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, metrics))
}
