// Package main is the entry point for the qotd daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/qotd/internal/adapters/http"
	"github.com/jsamuelsen/qotd/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qotd/internal/adapters/qotd"
	"github.com/jsamuelsen/qotd/internal/adapters/quotefile"
	"github.com/jsamuelsen/qotd/internal/app"
	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/platform/config"
	"github.com/jsamuelsen/qotd/internal/platform/logging"
	"github.com/jsamuelsen/qotd/internal/platform/telemetry"
	"github.com/jsamuelsen/qotd/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the daemon.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

// errUsage marks a bad command line.
var errUsage = errors.New("usage: qotd <quotes-file> [port]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx := context.Background()

	overrides, err := parseArgs(args)
	if err != nil {
		return err
	}

	// 1. Determine profile from environment
	profile := os.Getenv("QOTD_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.LoadWithOverrides(profile, overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting qotd",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		Headers:      cfg.Telemetry.Headers,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Load quotes before any socket is bound
	source := quotefile.New(cfg.QOTD.QuotesFile, logger)

	quotes, err := loadQuotes(ctx, source)
	if err != nil {
		return err
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Quotes: quotes,
		Logger: logger,
	})

	// 6. Bind both QOTD transports; nothing is kept if either fails
	qotdServer := qotd.New(qotd.Config{
		Host:           cfg.QOTD.Host,
		Port:           cfg.QOTD.Port,
		WriteTimeout:   cfg.QOTD.WriteTimeout,
		ReadBufferSize: cfg.QOTD.ReadBufferSize,
	}, quoteService, logger, qotd.NewMetrics(prometheus.DefaultRegisterer))

	if err := qotdServer.Listen(); err != nil {
		return fmt.Errorf("binding qotd listeners: %w", err)
	}

	// 7. Health registry
	healthRegistry := ports.NewHealthRegistry()

	checkers := append([]ports.HealthChecker{source}, qotdServer.HealthCheckers()...)
	for _, checker := range checkers {
		if err := healthRegistry.Register(checker); err != nil {
			return errors.Join(fmt.Errorf("registering health check: %w", err), qotdServer.Shutdown(ctx))
		}
	}

	// 8. Optional admin server
	var (
		admin    *http.Server
		adminErr <-chan error
	)

	if cfg.Admin.Enabled {
		admin = http.New(&cfg.Admin, logger)
		http.SetupRouter(admin.Engine(), http.RouterConfig{
			Logger:        logger,
			ServiceName:   cfg.App.Name,
			HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), nil),
			QuoteHandler:  handlers.NewQuoteHandler(quoteService),
		})

		if err := admin.Listen(); err != nil {
			return errors.Join(err, qotdServer.Shutdown(ctx))
		}

		adminErr = admin.Start()
	}

	// 9. Serve
	qotdErr := qotdServer.Start()

	logger.Info("qotd ready",
		slog.String("tcp", qotdServer.TCPAddr().String()),
		slog.String("udp", qotdServer.UDPAddr().String()),
	)

	// 10. Wait for shutdown signal
	return waitForShutdown(ctx, logger, qotdServer, admin, qotdErr, adminErr, cfg.Admin.ShutdownTimeout)
}

// loadQuotes reads the quote set once; it is never reloaded.
func loadQuotes(ctx context.Context, source ports.QuoteSource) (*domain.QuoteSet, error) {
	quotes, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading quotes from %s: %w", source.Name(), err)
	}

	return quotes, nil
}

// parseArgs turns the positional arguments into config overrides.
func parseArgs(args []string) (map[string]any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errUsage
	}

	overrides := map[string]any{"qotd.quotes_file": args[0]}

	if len(args) == 2 {
		port, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil || port == 0 {
			return nil, fmt.Errorf("%w: invalid port %q", errUsage, args[1])
		}

		overrides["qotd.port"] = int(port)
	}

	return overrides, nil
}

// waitForShutdown blocks until a shutdown signal is received or a server fails.
// It then stops the admin server and the QOTD loops.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	qotdServer *qotd.Server,
	admin *http.Server,
	qotdErr, adminErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(quit)

	var serveErr error

	select {
	case err := <-qotdErr:
		serveErr = err
		if err == nil {
			serveErr = errors.New("qotd server stopped unexpectedly")
		}

	case err := <-adminErr:
		serveErr = err
		if err == nil {
			serveErr = errors.New("admin server stopped unexpectedly")
		}

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	var errs []error

	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("admin shutdown: %w", err))
		}
	}

	if err := qotdServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("qotd shutdown: %w", err))
	}

	if serveErr != nil {
		return errors.Join(append([]error{serveErr}, errs...)...)
	}

	logger.Info("shutdown complete")

	return errors.Join(errs...)
}
