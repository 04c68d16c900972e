// Package listener accepts camera connections on a raw TCP socket and runs
// one Handler per connection.
package listener

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"plategate/internal/logger"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// forceCloseWait bounds the wait for handlers after their connections were
// force-closed at the shutdown timeout.
var forceCloseWait = 5 * time.Second

// Server accepts TCP connections and hands each one to a Handler.
type Server struct {
	addr            string
	handler         *Handler
	logger          logger.Logger
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer returns a Server for addr. shutdownTimeout bounds how long Serve
// waits for in-flight connections once its context is cancelled; zero waits
// without limit.
func NewServer(addr string, handler *Handler, shutdownTimeout time.Duration, log logger.Logger) *Server {
	return &Server{
		addr:            addr,
		handler:         handler,
		logger:          log,
		shutdownTimeout: shutdownTimeout,
		conns:           make(map[net.Conn]struct{}),
	}
}

// Listen binds the socket. Serve calls it when it has not been called yet.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits up to the
// shutdown timeout for in-flight connections before closing them.
// Handlers run on a context that is not cancelled with ctx, so a request
// that was fully read still gets persisted and answered.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	s.logger.Infow("Listening for camera connections", "address", l.Addr().String())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	handlerCtx := context.WithoutCancel(ctx)
	var delay time.Duration

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.logger.Warnw("Accept failed, retrying",
				"error", err,
				"retry_in", delay,
			)

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
			}
			break
		}
		delay = 0

		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handler.Handle(handlerCtx, conn)
		}()
	}

	s.drain()
	return nil
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var timeout <-chan time.Time
	if s.shutdownTimeout > 0 {
		timeout = time.After(s.shutdownTimeout)
	}

	select {
	case <-done:
		s.logger.Info("Listener stopped")
		return
	case <-timeout:
	}

	s.mu.Lock()
	open := len(s.conns)
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.logger.Warnw("Shutdown timeout reached, closed open camera connections",
		"connections", open,
	)

	select {
	case <-done:
		s.logger.Info("Listener stopped")
	case <-time.After(forceCloseWait):
		s.logger.Warnw("Handlers still running after connections were closed, abandoning them",
			"wait", forceCloseWait,
		)
	}
}
