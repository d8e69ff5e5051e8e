// Package app contains application services that orchestrate use cases.
// It selects the quote of the day and renders it for the transports; it
// knows nothing about sockets or HTTP.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/platform/logging"
)

// Clock returns the current instant. Tests inject a fixed clock.
type Clock func() time.Time

// QuoteService serves the quote of the day from an immutable QuoteSet.
// The set is shared by reference with every caller and never written after
// construction, so the service is safe for concurrent use without locking.
type QuoteService struct {
	quotes *domain.QuoteSet
	clock  Clock
	logger *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Quotes *domain.QuoteSet
	Clock  Clock
	Logger *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if no quote set is supplied.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Quotes == nil {
		panic("app: QuoteServiceConfig.Quotes is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		quotes: cfg.Quotes,
		clock:  clock,
		logger: logger,
	}
}

// Quotes returns the shared quote set.
func (s *QuoteService) Quotes() *domain.QuoteSet {
	return s.quotes
}

// Today returns the quote selected for the current instant.
// The index is recomputed on every call and never cached.
func (s *QuoteService) Today(ctx context.Context) (*domain.DailyQuote, error) {
	now := s.clock()

	day, err := DayNumber(now)
	if err != nil {
		return nil, fmt.Errorf("selecting quote at %s: %w", now.UTC().Format(time.RFC3339), err)
	}

	index, err := SelectIndex(now, s.quotes.Len())
	if err != nil {
		return nil, fmt.Errorf("selecting quote: %w", err)
	}

	quote, err := s.quotes.At(index)
	if err != nil {
		return nil, fmt.Errorf("selecting quote: %w", err)
	}

	return &domain.DailyQuote{Day: day, Index: index, Quote: quote}, nil
}

// Render returns today's quote in the QOTD wire layout.
func (s *QuoteService) Render(ctx context.Context) ([]byte, error) {
	daily, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}

	logging.FromContextOr(ctx, s.logger).DebugContext(ctx, "rendering quote",
		slog.Int64("day", daily.Day),
		slog.Int("index", daily.Index),
	)

	return Format(daily.Quote), nil
}
