// Package sink forwards decoded events to the external store. A Sink is
// written to once per event, best-effort: there is no retry and no queue, so
// an event whose write fails is lost from the sink (its XML is already on
// disk).
package sink

import (
	"context"
	"time"

	"plategate/pkg/errors"
	"plategate/pkg/metrics"
	"plategate/pkg/models"
)

type Sink interface {
	Write(ctx context.Context, event models.StructuredEvent) error
	Name() string
	Close() error
}

// unavailable wraps err as SINK_UNAVAILABLE unless it already is one.
func unavailable(sinkName string, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsSinkUnavailable(err) {
		return err
	}
	return errors.ErrSinkUnavailable.WithCause(err).WithDetail("sink", sinkName)
}

// instrumented records write counts and latency for the sink it wraps.
type instrumented struct {
	Sink
}

func (s instrumented) Write(ctx context.Context, event models.StructuredEvent) error {
	start := time.Now()
	err := s.Sink.Write(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ObserveSinkWrite(s.Sink.Name(), status, time.Since(start))
	return err
}
