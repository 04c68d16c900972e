package sink

import (
	"context"

	"github.com/sony/gobreaker"

	"plategate/internal/config"
	"plategate/internal/logger"
	"plategate/pkg/circuitbreaker"
	"plategate/pkg/models"
)

// CircuitBreakerSink stops calling an unreachable sink for a while after
// repeated failures, so a dead database does not add a connect timeout to
// every camera request.
type CircuitBreakerSink struct {
	next Sink
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerSink(next Sink, cfg config.CircuitBreakerConfig, log logger.Logger) *CircuitBreakerSink {
	cbConfig := circuitbreaker.DefaultConfig("sink-" + next.Name())
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = circuitbreaker.RatioTrip(cfg.MinRequests, cfg.FailureRatio)
	}
	cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warnw("Sink circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	}

	return &CircuitBreakerSink{
		next: next,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (s *CircuitBreakerSink) Name() string { return s.next.Name() }

func (s *CircuitBreakerSink) Write(ctx context.Context, event models.StructuredEvent) error {
	err := s.cb.Execute(ctx, func() error {
		return s.next.Write(ctx, event)
	})
	return unavailable(s.Name(), err)
}

func (s *CircuitBreakerSink) State() string {
	return s.cb.State().String()
}

func (s *CircuitBreakerSink) Close() error { return s.next.Close() }
