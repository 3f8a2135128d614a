package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trade-journal/middleware"
	"trade-journal/models"
)

func (h *Handler) StrategyList(c *gin.Context) {
	strategies, err := h.store.ListStrategies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.serverError(c, "Failed to load strategies", err)
		return
	}
	c.HTML(http.StatusOK, "strategy_list", page(c, "Strategies", gin.H{"strategies": strategies}))
}

func (h *Handler) NewStrategy(c *gin.Context) {
	c.HTML(http.StatusOK, "strategy_form", page(c, "Create New Strategy", gin.H{
		"form":   StrategyForm{},
		"errors": FieldErrors{},
	}))
}

func (h *Handler) CreateStrategy(c *gin.Context) {
	var form StrategyForm
	errs := FieldErrors{}
	if err := c.ShouldBind(&form); err != nil {
		errs.Add("__all__", err.Error())
	} else {
		errs = form.Validate()
	}
	if len(errs) > 0 {
		c.HTML(http.StatusBadRequest, "strategy_form", page(c, "Create New Strategy", gin.H{
			"form":   form,
			"errors": errs,
		}))
		return
	}

	strategy := models.Strategy{
		UserID:      middleware.UserID(c),
		Name:        form.Name,
		Description: form.Description,
	}
	if err := h.store.CreateStrategy(c.Request.Context(), &strategy); err != nil {
		h.serverError(c, "Failed to save strategy", err)
		return
	}
	redirectWithFlash(c, "/strategies", "Strategy created successfully!")
}
