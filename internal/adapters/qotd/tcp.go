package qotd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// maxAcceptBackoff caps the pause after consecutive accept failures.
const maxAcceptBackoff = time.Second

// TCPServer writes one quote to every accepted connection and closes it.
// Each connection is served on its own goroutine, so a client that never
// reads cannot hold up anyone else.
type TCPServer struct {
	handler      handler
	writeTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closing  atomic.Bool
}

// NewTCPServer creates a TCP server. A zero writeTimeout means writes never time out.
func NewTCPServer(renderer Renderer, writeTimeout time.Duration, logger *slog.Logger, metrics *Metrics) *TCPServer {
	return &TCPServer{
		handler:      newHandler(transportTCP, renderer, logger, metrics),
		writeTimeout: writeTimeout,
		conns:        make(map[net.Conn]struct{}),
	}
}

// Listen binds addr. An empty host binds every interface, IPv4 and IPv6.
func (s *TCPServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on tcp %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Serve accepts connections until ctx is done or the listener is closed.
// Accept failures are logged and retried with backoff; they never end the loop.
func (s *TCPServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return errors.New("tcp server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	s.handler.logger.InfoContext(ctx, "serving qotd", slog.String("transport", transportTCP),
		slog.String("addr", ln.Addr().String()))

	var backoff time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			backoff = nextBackoff(backoff)

			s.handler.metrics.recordError(transportTCP, opAccept)
			s.handler.logger.ErrorContext(ctx, "accepting connection",
				slog.String("transport", transportTCP),
				slog.String("op", opAccept),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", backoff),
			)

			if !pause(ctx, backoff) {
				return nil
			}

			continue
		}

		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()

			return nil
		}

		go s.handleConn(ctx, conn)
	}
}

// handleConn writes one quote and closes conn.
func (s *TCPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	s.handler.metrics.connOpened()
	defer s.handler.metrics.connClosed()

	ctx, span := s.handler.begin(ctx, conn.RemoteAddr().String())
	defer span.End()
	defer s.handler.recoverPanic(ctx, span)

	reply, err := s.handler.renderer.Render(ctx)
	if err != nil {
		s.handler.fail(ctx, span, opRender, err)

		return
	}

	if s.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			s.handler.fail(ctx, span, opWrite, fmt.Errorf("setting write deadline: %w", err))

			return
		}
	}

	n, err := conn.Write(reply)
	if err != nil {
		s.handler.fail(ctx, span, opWrite, err)

		return
	}

	s.handler.sent(ctx, span, n)
}

// track registers conn for Shutdown. It reports false once the server is closing.
func (s *TCPServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return false
	}

	s.conns[conn] = struct{}{}
	s.wg.Add(1)

	return true
}

func (s *TCPServer) untrack(conn net.Conn) {
	_ = conn.Close()

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Close stops accepting connections. In-flight connections are left to finish.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closing.Store(true)

	if s.listener == nil {
		return nil
	}

	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting and waits for in-flight connections.
// When ctx expires first the remaining connections are closed and ctx.Err is returned.
func (s *TCPServer) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("closing tcp listener: %w", err)
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()

		return ctx.Err()
	}
}

// pause waits for d. It reports false if ctx ends first.
func pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff doubles the accept retry delay from 5ms up to maxAcceptBackoff.
func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}

	d *= 2
	if d > maxAcceptBackoff {
		return maxAcceptBackoff
	}

	return d
}
