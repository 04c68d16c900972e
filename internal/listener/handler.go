package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"plategate/internal/config"
	"plategate/internal/logger"
	"plategate/internal/multipart"
	pkgerrors "plategate/pkg/errors"
	"plategate/pkg/logging"
	"plategate/pkg/metrics"
	"plategate/pkg/tracing"
)

// Responses are fixed byte sequences; cameras only look at the status line.
var (
	okResponse         = []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	badRequestResponse = []byte("HTTP/1.1 400 Bad Request\r\nContent-Length: 0\r\n\r\n")
)

const (
	statusOK         = "ok"
	statusBadRequest = "bad_request"
	statusReadError  = "read_error"
	statusPanic      = "panic"
)

var errRequestTooLarge = errors.New("request exceeds max_request_bytes")

// PartRouter persists one extracted part.
type PartRouter interface {
	Route(ctx context.Context, part multipart.Part) error
}

// Handler serves one camera connection: it buffers the stream until the
// camera closes its write side, splits the buffer into parts, routes them
// and answers with a bare status line.
type Handler struct {
	router          PartRouter
	logger          logger.Logger
	readTimeout     time.Duration
	maxRequestBytes int64
}

// NewHandler returns a Handler routing extracted parts to router, with the
// read timeout and request size limit taken from cfg.
func NewHandler(router PartRouter, cfg config.ListenerConfig, log logger.Logger) *Handler {
	return &Handler{
		router:          router,
		logger:          log,
		readTimeout:     cfg.ReadTimeout,
		maxRequestBytes: cfg.MaxRequestBytes,
	}
}

// Handle owns conn and closes it before returning.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connectionID := uuid.NewString()
	remoteAddr := conn.RemoteAddr().String()

	ctx = logging.WithConnectionID(ctx, connectionID)
	ctx = logging.WithRemoteAddr(ctx, remoteAddr)
	ctx, span := tracing.StartConnectionSpan(ctx, connectionID, remoteAddr)
	defer span.End()
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}

	metrics.IngestActiveConnections.Inc()
	defer metrics.IngestActiveConnections.Dec()

	status, size, elapsed := h.serve(ctx, conn)
	metrics.IncConnection(status)
	if status != statusReadError {
		metrics.ObserveRequest(size, elapsed, status)
	}
}

// serve runs the connection and reports its outcome, the buffered size and
// the time spent after the stream ended.
func (h *Handler) serve(ctx context.Context, conn net.Conn) (status string, size int, elapsed time.Duration) {
	var start time.Time
	defer func() {
		if r := recover(); r != nil {
			err := pkgerrors.RecoverPanic(r)
			metrics.IncPartError(err.Code)
			h.logger.ErrorwCtx(ctx, "Panic while handling connection",
				"error", err.Unwrap(),
				"error_code", err.Code,
				"stack", pkgerrors.StackTrace(err),
			)
			status = statusPanic
		}
		if !start.IsZero() {
			elapsed = time.Since(start)
		}
	}()

	buf, err := h.readAll(conn)
	size = len(buf)
	if err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to read request",
			"error", err,
			"bytes", size,
		)
		return statusReadError, size, 0
	}
	start = time.Now()

	delimiter, ok := multipart.ResolveBoundary(buf)
	if !ok {
		protoErr := pkgerrors.ErrProtocol.WithDetail("bytes", size)
		metrics.IncPartError(protoErr.Code)
		h.logger.WarnwCtx(ctx, "Rejecting request without multipart boundary",
			"error", protoErr,
			"bytes", size,
		)
		h.respond(ctx, conn, badRequestResponse)
		return statusBadRequest, size, 0
	}

	result := multipart.Scan(buf, delimiter)
	if result.Truncated {
		metrics.IncPartError(pkgerrors.ErrTruncatedPart.Code)
		h.logger.WarnwCtx(ctx, "Dropping truncated trailing part",
			"error", pkgerrors.ErrTruncatedPart,
		)
	}

	h.logger.InfowCtx(ctx, "Request received",
		"bytes", size,
		"parts", len(result.Parts),
	)

	for i, part := range result.Parts {
		if err := h.router.Route(ctx, part); err != nil {
			code := pkgerrors.Code(err)
			if code == "" {
				code = pkgerrors.ErrInternal.Code
			}
			metrics.IncPartError(code)
			h.logger.ErrorwCtx(ctx, "Failed to process part",
				"part_index", i,
				"content_type", part.ContentType,
				"filename", part.Filename,
				"error_code", code,
				"error", err,
			)
		}
	}

	h.respond(ctx, conn, okResponse)
	return statusOK, size, 0
}

func (h *Handler) readAll(conn net.Conn) ([]byte, error) {
	if h.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	var r io.Reader = conn
	if h.maxRequestBytes > 0 {
		r = io.LimitReader(conn, h.maxRequestBytes+1)
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return buf, err
	}
	if h.maxRequestBytes > 0 && int64(len(buf)) > h.maxRequestBytes {
		return buf, errRequestTooLarge
	}
	return buf, nil
}

func (h *Handler) respond(ctx context.Context, conn net.Conn, response []byte) {
	if _, err := conn.Write(response); err != nil {
		h.logger.WarnwCtx(ctx, "Failed to write response",
			"error", err,
		)
	}
}
