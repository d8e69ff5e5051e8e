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

// UDPServer answers every inbound datagram with one quote datagram.
// The inbound payload is read into a fixed buffer and discarded; a datagram
// larger than the buffer is truncated and still answered.
type UDPServer struct {
	handler      handler
	writeTimeout time.Duration
	bufferSize   int

	mu      sync.Mutex
	conn    net.PacketConn
	closing atomic.Bool
}

// NewUDPServer creates a UDP server. bufferSize bounds how much of each
// inbound datagram is read; values below one are raised to one.
func NewUDPServer(renderer Renderer, writeTimeout time.Duration, bufferSize int, logger *slog.Logger, metrics *Metrics) *UDPServer {
	return &UDPServer{
		handler:      newHandler(transportUDP, renderer, logger, metrics),
		writeTimeout: writeTimeout,
		bufferSize:   max(bufferSize, 1),
	}
}

// Listen binds addr. An empty host binds every interface, IPv4 and IPv6.
func (s *UDPServer) Listen(addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listening on udp %s: %w", addr, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *UDPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	return s.conn.LocalAddr()
}

// Serve reads datagrams until ctx is done or the socket is closed.
// Read and write failures are logged and the loop continues.
func (s *UDPServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return errors.New("udp server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	s.handler.logger.InfoContext(ctx, "serving qotd", slog.String("transport", transportUDP),
		slog.String("addr", conn.LocalAddr().String()))

	buf := make([]byte, s.bufferSize)

	var backoff time.Duration

	for {
		_, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			backoff = nextBackoff(backoff)

			s.handler.metrics.recordError(transportUDP, opRead)
			s.handler.logger.ErrorContext(ctx, "reading datagram",
				slog.String("transport", transportUDP),
				slog.String("op", opRead),
				slog.String("error", err.Error()),
			)

			if !pause(ctx, backoff) {
				return nil
			}

			continue
		}

		backoff = 0

		s.handlePacket(ctx, conn, peer)
	}
}

// handlePacket sends one quote datagram to peer.
func (s *UDPServer) handlePacket(ctx context.Context, conn net.PacketConn, peer net.Addr) {
	ctx, span := s.handler.begin(ctx, peer.String())
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

	n, err := conn.WriteTo(reply, peer)
	if err != nil {
		s.handler.fail(ctx, span, opWrite, err)

		return
	}

	s.handler.sent(ctx, span, n)
}

// Close releases the socket and ends Serve.
func (s *UDPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closing.Store(true)

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}
