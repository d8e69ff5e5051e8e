// Package domain contains core business entities and rules.
package domain

import (
	"strconv"
	"strings"
)

// RecordDelimiter separates the quote text from its attribution in a quotes source.
const RecordDelimiter = "|"

// Quote represents a quotation with its attribution.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// Text is the body of the quote, without surrounding quotation marks.
	Text string

	// Attribution names who said or wrote the quote.
	Attribution string
}

// Validate checks that both fields are present and free of the record delimiter.
func (q Quote) Validate() error {
	switch {
	case q.Text == "":
		return NewValidationError("text", "must not be empty")
	case q.Attribution == "":
		return NewValidationError("attribution", "must not be empty")
	case strings.Contains(q.Text, RecordDelimiter):
		return NewValidationErrorWithValue("text", "must not contain "+RecordDelimiter, q.Text)
	case strings.Contains(q.Attribution, RecordDelimiter):
		return NewValidationErrorWithValue("attribution", "must not contain "+RecordDelimiter, q.Attribution)
	}

	return nil
}

// QuoteSet is an ordered, immutable collection of quotes.
// It is built once at startup and shared by reference with every responder.
// No method mutates it, so concurrent readers need no locking.
type QuoteSet struct {
	quotes []Quote
}

// NewQuoteSet validates quotes and returns a set holding its own copy of them.
// Index order matches input order and never changes afterwards.
func NewQuoteSet(quotes []Quote) (*QuoteSet, error) {
	if len(quotes) == 0 {
		return nil, ErrEmptyQuoteSet
	}

	owned := make([]Quote, len(quotes))
	for i, q := range quotes {
		if err := q.Validate(); err != nil {
			return nil, &InvalidQuoteError{Index: i, Err: err}
		}

		owned[i] = q
	}

	return &QuoteSet{quotes: owned}, nil
}

// Len returns the number of quotes in the set. Always at least one.
func (s *QuoteSet) Len() int {
	return len(s.quotes)
}

// At returns the quote at index i.
// Returns a NotFoundError if i is out of range.
func (s *QuoteSet) At(i int) (Quote, error) {
	if i < 0 || i >= len(s.quotes) {
		return Quote{}, NewNotFoundError("quote", strconv.Itoa(i))
	}

	return s.quotes[i], nil
}

// All returns a copy of the quotes in index order.
func (s *QuoteSet) All() []Quote {
	out := make([]Quote, len(s.quotes))
	copy(out, s.quotes)

	return out
}

// DailyQuote is the quote selected for one day, together with how it was chosen.
type DailyQuote struct {
	// Day is the number of whole days elapsed since the unix epoch.
	Day int64

	// Index is the position of Quote within its QuoteSet.
	Index int

	Quote Quote
}
