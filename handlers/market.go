package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal/market"
)

// GetQuote returns the latest price of :symbol, used to prefill a trade's entry price.
func (h *Handler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" || len(symbol) > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid symbol"})
		return
	}

	quote, err := h.quotes.Latest(c.Request.Context(), symbol)
	if errors.Is(err, market.ErrSymbolNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}
	if err != nil {
		h.log.Warn("Failed to fetch stock data", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to fetch stock data"})
		return
	}
	c.JSON(http.StatusOK, quote)
}
