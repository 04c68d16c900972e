package sink

import (
	"context"

	"plategate/internal/logger"
	"plategate/pkg/cel"
	"plategate/pkg/metrics"
	"plategate/pkg/models"
)

// FilterSink forwards only events matching a CEL expression. An expression
// that fails at runtime forwards the event.
type FilterSink struct {
	next   Sink
	filter *cel.Filter
	logger logger.Logger
}

func NewFilterSink(next Sink, filter *cel.Filter, log logger.Logger) *FilterSink {
	return &FilterSink{next: next, filter: filter, logger: log}
}

func (s *FilterSink) Name() string { return s.next.Name() }

func (s *FilterSink) Write(ctx context.Context, event models.StructuredEvent) error {
	match, err := s.filter.Match(ctx, event)
	if err != nil {
		metrics.IncFilter("error")
		s.logger.WarnwCtx(ctx, "Sink filter evaluation failed, forwarding event",
			"error", err,
			"expression", s.filter.Expression(),
		)
		return s.next.Write(ctx, event)
	}

	if !match {
		metrics.IncFilter("rejected")
		return nil
	}

	metrics.IncFilter("accepted")
	return s.next.Write(ctx, event)
}

func (s *FilterSink) Close() error { return s.next.Close() }
