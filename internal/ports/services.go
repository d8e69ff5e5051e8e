// Package ports defines interfaces between the application core and its adapters.
// Ports are contracts that adapters implement, allowing the transports and the
// admin surface to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and request-scoped logging
//   - Return domain types, never wire or infrastructure types
//   - Error returns use domain error types (ErrValidation, ErrNotFound, etc.)
package ports

import (
	"context"

	"github.com/jsamuelsen/qotd/internal/domain"
)

// QuoteSource loads the quote set served by the daemon.
// It is read once at startup; the returned set is never reloaded.
type QuoteSource interface {
	// Name identifies the source in logs and health output.
	Name() string

	// Load reads and validates every record.
	// Returns a domain.ErrValidation wrapped error for malformed input
	// and domain.ErrEmptyQuoteSet when no records are present.
	Load(ctx context.Context) (*domain.QuoteSet, error)
}

// DailyQuoteService selects and renders the quote for the current day.
// Implementations must be safe for concurrent use by any number of responders.
type DailyQuoteService interface {
	// Today returns the quote selected for the current instant.
	Today(ctx context.Context) (*domain.DailyQuote, error)

	// Render returns today's quote in the QOTD wire layout.
	Render(ctx context.Context) ([]byte, error)
}
