package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trade-journal/middleware"
)

type BalanceInput struct {
	CurrentBalance *decimal.Decimal `json:"current_balance" binding:"required"`
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	portfolio, err := h.store.FindPortfolio(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.serverError(c, "Failed to fetch portfolio", err)
		return
	}
	if portfolio == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// UpdatePortfolio sets the current balance, creating the portfolio on first use.
func (h *Handler) UpdatePortfolio(c *gin.Context) {
	var input BalanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := h.store.SetBalance(c.Request.Context(), middleware.UserID(c), *input.CurrentBalance)
	if err != nil {
		h.serverError(c, "Failed to update portfolio", err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}
