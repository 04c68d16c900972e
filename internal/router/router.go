// Package router persists extracted parts by content type and forwards the
// decoded event of each XML part to the sink.
package router

import (
	"context"
	"strings"
	"time"

	"plategate/internal/anpr"
	"plategate/internal/logger"
	"plategate/internal/multipart"
	"plategate/internal/sink"
	"plategate/internal/storage"
	pkgerrors "plategate/pkg/errors"
	"plategate/pkg/metrics"
)

// Router routes extracted parts to storage and the event sink.
type Router struct {
	store  storage.Store
	sink   sink.Sink
	logger logger.Logger
	now    func() time.Time
}

// New returns a Router writing to store and forwarding events to s.
func New(store storage.Store, s sink.Sink, log logger.Logger) *Router {
	return &Router{
		store:  store,
		sink:   s,
		logger: log,
		now:    time.Now,
	}
}

// Route handles one part:
//
//   - image/*: written to the images area under its declared filename. A
//     part with no filename is skipped with ErrMissingFilename.
//   - application/xml*: written to the event log area under a timestamp
//     name, then decoded and sent to the sink once. Each step runs only
//     if the one before succeeded, so nothing reaches the sink unless its
//     XML is on disk.
//   - anything else: ignored.
func (r *Router) Route(ctx context.Context, part multipart.Part) error {
	kind := part.Kind()
	metrics.IncPart(string(kind))

	switch kind {
	case multipart.KindImage:
		return r.routeImage(ctx, part)
	case multipart.KindXML:
		return r.routeXML(ctx, part)
	default:
		r.logger.DebugwCtx(ctx, "Ignoring part with unhandled content type",
			"content_type", part.ContentType,
			"size", len(part.Content),
		)
		return nil
	}
}

func (r *Router) routeImage(ctx context.Context, part multipart.Part) error {
	if !part.HasFilename() {
		return pkgerrors.ErrMissingFilename.WithDetail("content_type", part.ContentType)
	}

	path, err := r.put(ctx, storage.AreaImages, part.Filename, part.Content)
	if err != nil {
		return err
	}

	r.logger.InfowCtx(ctx, "Image stored",
		"path", path,
		"size", len(part.Content),
	)
	return nil
}

func (r *Router) routeXML(ctx context.Context, part multipart.Part) error {
	text := strings.ToValidUTF8(string(part.Content), "\uFFFD")

	path, err := r.put(ctx, storage.AreaEventLogs, storage.EventLogName(r.now()), []byte(text))
	if err != nil {
		return err
	}
	r.logger.InfowCtx(ctx, "Event XML stored",
		"path", path,
		"size", len(text),
	)

	event, err := anpr.Decode(text)
	if err != nil {
		return err
	}

	if err := r.sink.Write(ctx, event); err != nil {
		if !pkgerrors.IsSinkUnavailable(err) {
			err = pkgerrors.ErrSinkUnavailable.WithCause(err).WithDetail("sink", r.sink.Name())
		}
		return err
	}

	r.logger.InfowCtx(ctx, "Event forwarded",
		"sink", r.sink.Name(),
		"license_plate", event.LicensePlate,
		"camera_ip", event.IPAddress,
	)
	return nil
}

func (r *Router) put(ctx context.Context, area storage.Area, name string, data []byte) (string, error) {
	path, err := r.store.Put(ctx, area, name, data)
	if err != nil {
		metrics.IncStorageWrite(string(area), "error")
		if !pkgerrors.IsStorage(err) {
			err = pkgerrors.ErrStorage.WithCause(err)
		}
		return "", err
	}
	metrics.IncStorageWrite(string(area), "success")
	return path, nil
}
