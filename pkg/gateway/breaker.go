package gateway

import (
	"errors"

	"github.com/abgdnv/storesync/pkg/config"
	"github.com/sony/gobreaker/v2"
)

func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*response] {
	st := gobreaker.Settings{
		Name:        "storefront-gateway",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
	}
	return gobreaker.NewCircuitBreaker[*response](st)
}

// isSuccessful counts only transport errors and 5xx answers against the breaker.
// A 4xx means the service is up and rejected the request.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.ServerError()
	}
	return false
}
