package dto

import (
	"time"

	"github.com/jsamuelsen/qotd/internal/app"
	"github.com/jsamuelsen/qotd/internal/domain"
)

// Reply formats accepted by GET /api/v1/quotes/today.
const (
	FormatJSON = "json"
	FormatWire = "wire"
)

// TodayRequest holds the query parameters of GET /api/v1/quotes/today.
type TodayRequest struct {
	Format string `form:"format" validate:"omitempty,oneof=json wire"`
}

// QuoteOfTheDayResponse is the JSON view of the current quote.
type QuoteOfTheDayResponse struct {
	Index       int    `json:"index"`
	Day         int64  `json:"day"`
	Date        string `json:"date"`
	Text        string `json:"text"`
	Attribution string `json:"attribution"`
}

// NewQuoteOfTheDayResponse converts a domain DailyQuote to its JSON view.
func NewQuoteOfTheDayResponse(q *domain.DailyQuote) *QuoteOfTheDayResponse {
	return &QuoteOfTheDayResponse{
		Index:       q.Index,
		Day:         q.Day,
		Date:        time.Unix(q.Day*app.SecondsPerDay, 0).UTC().Format(time.DateOnly),
		Text:        q.Quote.Text,
		Attribution: q.Quote.Attribution,
	}
}
