package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal/journal"
	"trade-journal/middleware"
	"trade-journal/models"
)

// listOptions reads sort_by and order. An absent parameter takes the
// configured default, a present one is passed through as given.
func (h *Handler) listOptions(c *gin.Context) journal.ListOptions {
	return journal.ListOptions{
		SortBy: c.DefaultQuery("sort_by", h.listDefaults.SortBy),
		Order:  c.DefaultQuery("order", h.listDefaults.Order),
	}
}

func (h *Handler) TradeList(c *gin.Context) {
	view, err := h.store.TradeList(c.Request.Context(), middleware.UserID(c), h.listOptions(c))
	if err != nil {
		h.serverError(c, "Failed to load trades", err)
		return
	}
	c.HTML(http.StatusOK, "trade_list", page(c, "My Trades", gin.H{"view": view}))
}

func (h *Handler) APITradeList(c *gin.Context) {
	view, err := h.store.TradeList(c.Request.Context(), middleware.UserID(c), h.listOptions(c))
	if err != nil {
		h.serverError(c, "Failed to load trades", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// loadTrade resolves :id to one of the caller's trades, answering 404 otherwise.
func (h *Handler) loadTrade(c *gin.Context, asJSON bool) (*models.Trade, bool) {
	id, ok := paramID(c, "id")
	if ok {
		trade, err := h.store.GetTrade(c.Request.Context(), middleware.UserID(c), id)
		if err == nil {
			return trade, true
		}
		if !isNotFound(err) {
			h.serverError(c, "Failed to load trade", err)
			return nil, false
		}
	}
	if asJSON {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trade not found"})
	} else {
		notFoundPage(c, "Trade")
	}
	return nil, false
}

func (h *Handler) renderTradeForm(c *gin.Context, status int, title, action string, form TradeForm, errs FieldErrors) {
	strategies, err := h.store.ListStrategies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.serverError(c, "Failed to load strategies", err)
		return
	}
	if errs == nil {
		errs = FieldErrors{}
	}
	c.HTML(status, "trade_form", page(c, title, gin.H{
		"form":       form,
		"errors":     errs,
		"strategies": strategies,
		"action":     action,
	}))
}

func (h *Handler) NewTrade(c *gin.Context) {
	h.renderTradeForm(c, http.StatusOK, "Log New Trade", "/trades", NewTradeForm(time.Now()), nil)
}

func (h *Handler) CreateTrade(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var form TradeForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderTradeForm(c, http.StatusBadRequest, "Log New Trade", "/trades", form, FieldErrors{"__all__": {err.Error()}})
		return
	}

	strategies, err := h.store.ListStrategies(ctx, userID)
	if err != nil {
		h.serverError(c, "Failed to load strategies", err)
		return
	}

	trade := models.Trade{UserID: userID}
	if errs := form.Apply(&trade, strategies); errs != nil {
		h.renderTradeForm(c, http.StatusBadRequest, "Log New Trade", "/trades", form, errs)
		return
	}

	if err := h.store.CreateTrade(ctx, &trade); err != nil {
		h.serverError(c, "Failed to save trade", err)
		return
	}
	h.log.Info("Trade logged", zap.Uint("user_id", userID), zap.Uint("trade_id", trade.ID), zap.String("symbol", trade.Symbol))
	redirectWithFlash(c, "/trades", "Trade logged successfully!")
}

func (h *Handler) TradeDetail(c *gin.Context) {
	trade, ok := h.loadTrade(c, false)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "trade_detail", page(c, trade.Symbol, gin.H{"trade": trade}))
}

func (h *Handler) EditTrade(c *gin.Context) {
	trade, ok := h.loadTrade(c, false)
	if !ok {
		return
	}
	h.renderTradeForm(c, http.StatusOK, "Update Trade", editURL(trade.ID), TradeFormFrom(trade), nil)
}

func (h *Handler) UpdateTrade(c *gin.Context) {
	trade, ok := h.loadTrade(c, false)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var form TradeForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderTradeForm(c, http.StatusBadRequest, "Update Trade", editURL(trade.ID), form, FieldErrors{"__all__": {err.Error()}})
		return
	}

	strategies, err := h.store.ListStrategies(ctx, trade.UserID)
	if err != nil {
		h.serverError(c, "Failed to load strategies", err)
		return
	}
	if errs := form.Apply(trade, strategies); errs != nil {
		h.renderTradeForm(c, http.StatusBadRequest, "Update Trade", editURL(trade.ID), form, errs)
		return
	}

	if err := h.store.UpdateTrade(ctx, trade); err != nil {
		h.serverError(c, "Failed to update trade", err)
		return
	}
	redirectWithFlash(c, fmt.Sprintf("/trades/%d", trade.ID), "Trade updated successfully!")
}

func editURL(id uint) string {
	return fmt.Sprintf("/trades/%d/edit", id)
}

func (h *Handler) ConfirmDeleteTrade(c *gin.Context) {
	trade, ok := h.loadTrade(c, false)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "trade_confirm_delete", page(c, "Delete Trade", gin.H{"trade": trade}))
}

func (h *Handler) DeleteTrade(c *gin.Context) {
	trade, ok := h.loadTrade(c, false)
	if !ok {
		return
	}

	paths, err := h.store.DeleteTrade(c.Request.Context(), trade)
	if err != nil {
		h.serverError(c, "Failed to delete trade", err)
		return
	}
	for _, p := range paths {
		if err := h.media.Delete(p); err != nil {
			h.log.Warn("Failed to remove chart file", zap.String("path", p), zap.Error(err))
		}
	}
	redirectWithFlash(c, "/trades", "Trade deleted successfully!")
}
