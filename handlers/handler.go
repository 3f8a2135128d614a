package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal/auth"
	"trade-journal/journal"
	"trade-journal/market"
	"trade-journal/middleware"
	"trade-journal/storage"
)

// QuoteService looks up the latest price of a symbol.
type QuoteService interface {
	Latest(ctx context.Context, symbol string) (market.Quote, error)
}

// Deps are the collaborators of Handler.
type Deps struct {
	Logger        *zap.Logger
	Store         *journal.Store
	Issuer        *auth.Issuer
	Refresh       auth.RefreshStore
	Media         *storage.MediaStore
	Quotes        QuoteService
	ListDefaults  journal.ListOptions
	SecureCookies bool
}

// Handler serves the journal's pages and JSON endpoints.
type Handler struct {
	log           *zap.Logger
	store         *journal.Store
	issuer        *auth.Issuer
	refresh       auth.RefreshStore
	media         *storage.MediaStore
	quotes        QuoteService
	listDefaults  journal.ListOptions
	secureCookies bool
}

func New(d Deps) *Handler {
	return &Handler{
		log:           d.Logger,
		store:         d.Store,
		issuer:        d.Issuer,
		refresh:       d.Refresh,
		media:         d.Media,
		quotes:        d.Quotes,
		listDefaults:  d.ListDefaults,
		secureCookies: d.SecureCookies,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	r.GET("/signup", h.SignupPage)
	r.POST("/signup", h.Signup)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", h.Logout)

	authed := r.Group("/")
	authed.Use(middleware.JWTAuth(h.issuer))
	{
		authed.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/trades") })

		authed.GET("/trades", h.TradeList)
		authed.GET("/trades/new", h.NewTrade)
		authed.POST("/trades", h.CreateTrade)
		authed.GET("/trades/:id", h.TradeDetail)
		authed.GET("/trades/:id/edit", h.EditTrade)
		authed.POST("/trades/:id/edit", h.UpdateTrade)
		authed.GET("/trades/:id/delete", h.ConfirmDeleteTrade)
		authed.POST("/trades/:id/delete", h.DeleteTrade)

		authed.POST("/trades/:id/images", h.UploadImage)
		authed.GET("/trades/:id/images", h.ListImages)
		authed.DELETE("/trades/:id/images/:img_id", h.DeleteImage)

		authed.GET("/strategies", h.StrategyList)
		authed.GET("/strategies/new", h.NewStrategy)
		authed.POST("/strategies", h.CreateStrategy)

		api := authed.Group("/api")
		api.GET("/trades", h.APITradeList)
		api.GET("/portfolio", h.GetPortfolio)
		api.PUT("/portfolio", h.UpdatePortfolio)
		api.GET("/quotes/:symbol", h.GetQuote)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// page adds the values the layout needs to data.
func page(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["flash"] = c.Query("flash")
	data["authenticated"] = middleware.Authenticated(c)
	return data
}

func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	_ = c.Error(err)
	if middleware.WantsHTML(c) {
		c.HTML(http.StatusInternalServerError, "error", page(c, "Something went wrong", gin.H{"message": msg}))
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func notFoundPage(c *gin.Context, what string) {
	c.HTML(http.StatusNotFound, "error", page(c, "Not found", gin.H{"message": what + " not found"}))
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func isNotFound(err error) bool {
	return errors.Is(err, journal.ErrNotFound)
}

// redirectWithFlash sends the browser to target, carrying msg for the next page.
func redirectWithFlash(c *gin.Context, target, msg string) {
	c.Redirect(http.StatusFound, target+"?flash="+url.QueryEscape(msg))
}
