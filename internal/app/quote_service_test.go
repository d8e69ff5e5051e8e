package app

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/platform/logging"
)

func testQuoteSet(t *testing.T) *domain.QuoteSet {
	t.Helper()

	set, err := domain.NewQuoteSet([]domain.Quote{
		{Text: "zero", Attribution: "A"},
		{Text: "one", Attribution: "B"},
		{Text: "two", Attribution: "C"},
	})
	require.NoError(t, err)

	return set
}

func clockAt(secs int64) Clock {
	return func() time.Time { return time.Unix(secs, 0) }
}

func TestNewQuoteService_PanicsWithoutQuotes(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteService(QuoteServiceConfig{})
	})
}

func TestNewQuoteService_Defaults(t *testing.T) {
	set := testQuoteSet(t)
	svc := NewQuoteService(QuoteServiceConfig{Quotes: set})

	assert.Same(t, set, svc.Quotes())

	daily, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, daily.Index, 0)
	assert.Less(t, daily.Index, set.Len())
}

func TestQuoteService_Today(t *testing.T) {
	tests := []struct {
		name      string
		secs      int64
		wantDay   int64
		wantIndex int
		wantText  string
	}{
		{name: "epoch", secs: 0, wantDay: 0, wantIndex: 0, wantText: "zero"},
		{name: "day one", secs: SecondsPerDay + 10, wantDay: 1, wantIndex: 1, wantText: "one"},
		{name: "day five wraps", secs: 5*SecondsPerDay + 1, wantDay: 5, wantIndex: 2, wantText: "two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewQuoteService(QuoteServiceConfig{Quotes: testQuoteSet(t), Clock: clockAt(tt.secs)})

			daily, err := svc.Today(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantDay, daily.Day)
			assert.Equal(t, tt.wantIndex, daily.Index)
			assert.Equal(t, tt.wantText, daily.Quote.Text)
		})
	}
}

func TestQuoteService_Today_MatchesSelectIndex(t *testing.T) {
	set := testQuoteSet(t)

	for day := int64(0); day < 7; day++ {
		for _, offset := range []int64{0, 1, SecondsPerDay / 2, SecondsPerDay - 1} {
			now := time.Unix(day*SecondsPerDay+offset, 0)

			want, err := SelectIndex(now, set.Len())
			require.NoError(t, err)

			svc := NewQuoteService(QuoteServiceConfig{Quotes: set, Clock: func() time.Time { return now }})

			daily, err := svc.Today(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, daily.Index, "day %d offset %d", day, offset)
			assert.Equal(t, day, daily.Day)
		}
	}
}

func TestQuoteService_Today_ClockBeforeEpoch(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{Quotes: testQuoteSet(t), Clock: clockAt(-86400)})

	_, err := svc.Today(context.Background())
	require.ErrorIs(t, err, domain.ErrClockBeforeEpoch)
	assert.Contains(t, err.Error(), "1969-12-31T00:00:00Z")
}

func TestQuoteService_RecomputesEveryCall(t *testing.T) {
	var (
		mu   sync.Mutex
		secs int64
	)

	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		return time.Unix(secs, 0)
	}

	svc := NewQuoteService(QuoteServiceConfig{Quotes: testQuoteSet(t), Clock: clock})

	first, err := svc.Render(context.Background())
	require.NoError(t, err)

	mu.Lock()
	secs = SecondsPerDay
	mu.Unlock()

	second, err := svc.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "\"zero\"\n\n\t-- A\n", string(first))
	assert.Equal(t, "\"one\"\n\n\t-- B\n", string(second))
}

func TestQuoteService_Render_LogsFromContext(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logging.WithContext(context.Background(), logger)

	svc := NewQuoteService(QuoteServiceConfig{Quotes: testQuoteSet(t), Clock: clockAt(2 * SecondsPerDay)})

	_, err := svc.Render(ctx)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"rendering quote"`)
	assert.Contains(t, buf.String(), `"index":2`)
}

func TestQuoteService_ConcurrentRender(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{Quotes: testQuoteSet(t), Clock: clockAt(SecondsPerDay)})

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			reply, err := svc.Render(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "\"one\"\n\n\t-- B\n", string(reply))
		}()
	}

	wg.Wait()
}
