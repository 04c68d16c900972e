package sink

import (
	"context"

	"plategate/pkg/models"
)

// NopSink discards events.
type NopSink struct{}

func (NopSink) Write(ctx context.Context, event models.StructuredEvent) error {
	return ctx.Err()
}

func (NopSink) Name() string { return "none" }

func (NopSink) Close() error { return nil }
