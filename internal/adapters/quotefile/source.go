// Package quotefile loads quotes from a line-oriented text file.
//
// Each line holds one record of the form
//
//	<quote text>|<attribution>
//
// with exactly one delimiter. Any other line is rejected and the whole load fails.
package quotefile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jsamuelsen/qotd/internal/domain"
)

// maxLineBytes bounds a single record. bufio.Scanner's 64KiB default is raised
// so long quotes are reported as malformed rather than as a scanner error.
const maxLineBytes = 1 << 20

// MalformedLineError reports a line that does not hold exactly one delimiter
// or whose fields fail validation.
type MalformedLineError struct {
	// Line is the 1-based line number.
	Line int

	// Text is the offending line as read.
	Text string

	Err error
}

// Error implements the error interface.
func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("invalid line %d in quotes file: %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying validation error.
func (e *MalformedLineError) Unwrap() error {
	return e.Err
}

// Source reads quotes from a file path.
// It implements ports.QuoteSource and ports.HealthChecker.
type Source struct {
	path   string
	logger *slog.Logger
}

// New creates a Source for the file at path.
func New(path string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{path: path, logger: logger}
}

// Name identifies the source in logs and health output.
func (s *Source) Name() string {
	return "quotes"
}

// Path returns the file the source reads from.
func (s *Source) Path() string {
	return s.path
}

// Load reads and validates every record in the file.
func (s *Source) Load(ctx context.Context) (*domain.QuoteSet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening quotes file: %w", err)
	}
	defer f.Close()

	set, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading quotes file %s: %w", s.path, err)
	}

	s.logger.InfoContext(ctx, "loaded quotes",
		slog.String("path", s.path),
		slog.Int("count", set.Len()),
	)

	return set, nil
}

// Check reports whether the quotes file is still readable.
// The served set is never reloaded, so this only flags a vanished file.
func (s *Source) Check(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	return ctx.Err()
}

// Parse reads records from r until EOF.
// A final empty line (a file ending in a newline) is not a record; any other
// empty line is malformed.
func Parse(ctx context.Context, r io.Reader) (*domain.QuoteSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	var quotes []domain.Quote

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lineNo++

		quote, err := parseLine(strings.TrimSuffix(scanner.Text(), "\r"))
		if err != nil {
			return nil, &MalformedLineError{Line: lineNo, Text: scanner.Text(), Err: err}
		}

		quotes = append(quotes, quote)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &MalformedLineError{
				Line: lineNo + 1,
				Err:  domain.NewValidationError("", "line exceeds maximum length"),
			}
		}

		return nil, fmt.Errorf("scanning quotes: %w", err)
	}

	return domain.NewQuoteSet(quotes)
}

// parseLine splits one record on the delimiter.
func parseLine(line string) (domain.Quote, error) {
	parts := strings.Split(line, domain.RecordDelimiter)
	if len(parts) != 2 {
		return domain.Quote{}, domain.NewValidationErrorWithValue("",
			fmt.Sprintf("expected exactly one %q delimiter, found %d", domain.RecordDelimiter, len(parts)-1),
			line,
		)
	}

	q := domain.Quote{Text: parts[0], Attribution: parts[1]}
	if err := q.Validate(); err != nil {
		return domain.Quote{}, err
	}

	return q, nil
}
