package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qotd/internal/adapters/http/dto"
	"github.com/jsamuelsen/qotd/internal/ports"
)

// QuoteHandler exposes the current quote over HTTP.
type QuoteHandler struct {
	service ports.DailyQuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service ports.DailyQuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// GetToday handles GET /api/v1/quotes/today.
// With ?format=wire it returns the exact bytes a QOTD client would receive.
func (h *QuoteHandler) GetToday(c *gin.Context) {
	var req dto.TodayRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	ctx := c.Request.Context()

	if req.Format == dto.FormatWire {
		reply, err := h.service.Render(ctx)
		if err != nil {
			dto.HandleError(c, err)
			return
		}

		c.Data(http.StatusOK, "text/plain; charset=utf-8", reply)

		return
	}

	daily, err := h.service.Today(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteOfTheDayResponse(daily))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("/today", h.GetToday)
}
