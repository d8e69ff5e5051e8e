package qotd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/ports"
)

// Config holds listener settings for both transports.
type Config struct {
	// Host is the bind address. Empty means every interface, IPv4 and IPv6.
	Host string

	// Port is shared by TCP and UDP. Zero picks a free port for TCP and
	// binds UDP to the same number.
	Port int

	// WriteTimeout bounds each reply write. Zero disables it.
	WriteTimeout time.Duration

	// ReadBufferSize bounds how much of an inbound datagram is read.
	ReadBufferSize int
}

// Server runs the TCP and UDP listeners on one port under a single supervisor.
// Startup is all or nothing: if either bind fails, nothing stays bound.
type Server struct {
	cfg    Config
	tcp    *TCPServer
	udp    *UDPServer
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Server. Nothing is bound until Listen.
func New(cfg Config, renderer Renderer, logger *slog.Logger, metrics *Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:    cfg,
		tcp:    NewTCPServer(renderer, cfg.WriteTimeout, logger, metrics),
		udp:    NewUDPServer(renderer, cfg.WriteTimeout, cfg.ReadBufferSize, logger, metrics),
		logger: logger,
	}
}

// Listen binds TCP and then UDP on the same port.
// If the UDP bind fails the TCP listener is closed before returning.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	if err := s.tcp.Listen(addr); err != nil {
		return fmt.Errorf("binding qotd: %w", err)
	}

	udpAddr := addr
	if s.cfg.Port == 0 {
		if tcpAddr, ok := s.tcp.Addr().(*net.TCPAddr); ok {
			udpAddr = net.JoinHostPort(s.cfg.Host, strconv.Itoa(tcpAddr.Port))
		}
	}

	if err := s.udp.Listen(udpAddr); err != nil {
		return errors.Join(
			fmt.Errorf("binding qotd: %w", err),
			s.tcp.Close(),
		)
	}

	s.logger.Info("qotd listeners bound",
		slog.String("tcp", s.tcp.Addr().String()),
		slog.String("udp", s.udp.Addr().String()),
	)

	return nil
}

// Serve runs both loops until ctx is done. If one loop returns an error the
// other is stopped and the first error is returned.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.tcp.Serve(gctx)
	})

	g.Go(func() error {
		return s.udp.Serve(gctx)
	})

	return g.Wait()
}

// Start runs Serve in the background.
// Returns an error channel that receives a Serve error, if any, and is then closed.
// This method is non-blocking. Listen must have succeeded first.
func (s *Server) Start() <-chan error {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		if err := s.Serve(ctx); err != nil {
			errCh <- fmt.Errorf("qotd server error: %w", err)
		}

		close(errCh)
	}()

	return errCh
}

// Shutdown stops both loops and waits for in-flight TCP replies.
// The provided context controls how long to wait.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down qotd server")

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	err := errors.Join(
		s.udp.Close(),
		s.tcp.Shutdown(ctx),
	)

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
		}
	}

	if err != nil {
		return fmt.Errorf("qotd server shutdown: %w", err)
	}

	s.logger.Info("qotd server stopped")

	return nil
}

// TCPAddr returns the bound TCP address, or nil before Listen.
func (s *Server) TCPAddr() net.Addr {
	return s.tcp.Addr()
}

// UDPAddr returns the bound UDP address, or nil before Listen.
func (s *Server) UDPAddr() net.Addr {
	return s.udp.Addr()
}

// HealthCheckers reports each listener as unavailable until it is bound and
// again once it is closed.
func (s *Server) HealthCheckers() []ports.HealthChecker {
	return []ports.HealthChecker{
		ports.NewChecker("qotd-tcp", func(ctx context.Context) error {
			if s.tcp.Addr() == nil || s.tcp.closing.Load() {
				return domain.NewUnavailableError("qotd-tcp", "listener not bound")
			}

			return ctx.Err()
		}),
		ports.NewChecker("qotd-udp", func(ctx context.Context) error {
			if s.udp.Addr() == nil || s.udp.closing.Load() {
				return domain.NewUnavailableError("qotd-udp", "socket not bound")
			}

			return ctx.Err()
		}),
	}
}
