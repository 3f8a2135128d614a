package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"trade-journal/auth"
	"trade-journal/journal"
	"trade-journal/middleware"
	"trade-journal/models"
)

// RefreshCookie carries the refresh token of browser sessions.
const RefreshCookie = "refresh_token"

type SignupInput struct {
	Email          string `json:"email" form:"email" binding:"required,email"`
	Password       string `json:"password" form:"password" binding:"required,min=8"`
	OpeningBalance string `json:"opening_balance" form:"opening_balance"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"-" form:"next"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// safeNext only allows paths on this site. Browsers treat a backslash like
// a slash, so /\host would leave the site just as //host does.
func safeNext(next string) string {
	const fallback = "/trades"
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsRune(next, '\\') {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// bindOptional binds the request body if there is one. An empty body is
// not an error since the token may come from a cookie instead.
func bindOptional(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBind(obj)
}

func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup", page(c, "Sign Up", gin.H{"email": "", "error": ""}))
}

func (h *Handler) Signup(c *gin.Context) {
	var input SignupInput
	fail := func(status int, msg string) {
		if isJSON(c) {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.HTML(status, "signup", page(c, "Sign Up", gin.H{"error": msg, "email": input.Email}))
	}

	if err := c.ShouldBind(&input); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	var opening *decimal.Decimal
	if raw := strings.TrimSpace(input.OpeningBalance); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fail(http.StatusBadRequest, "opening_balance must be a number")
			return
		}
		opening = &d
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("Error hashing password", zap.Error(err))
		fail(http.StatusInternalServerError, "Error hashing password")
		return
	}

	user := models.User{
		Email:    normalizeEmail(input.Email),
		Password: string(hashedPassword),
	}
	err = h.store.CreateAccount(c.Request.Context(), &user, opening)
	if errors.Is(err, journal.ErrEmailTaken) {
		fail(http.StatusConflict, "Email already exists")
		return
	}
	if err != nil {
		h.log.Error("Error creating user", zap.Error(err))
		fail(http.StatusInternalServerError, "Error creating user")
		return
	}

	h.log.Info("User signed up", zap.Uint("user_id", user.ID))
	if isJSON(c) {
		c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "id": user.ID})
		return
	}
	redirectWithFlash(c, "/login", "Account created. Please log in.")
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", page(c, "Log In", gin.H{"next": c.Query("next"), "email": "", "error": ""}))
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	fail := func(status int, msg string) {
		if isJSON(c) {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.HTML(status, "login", page(c, "Log In", gin.H{"error": msg, "email": input.Email, "next": input.Next}))
	}

	if err := c.ShouldBind(&input); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.FindUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if err != nil {
		if !errors.Is(err, journal.ErrNotFound) {
			h.log.Error("Failed to look up user", zap.Error(err))
		}
		fail(http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		fail(http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := h.issuer.Pair(user.ID)
	if err != nil {
		h.log.Error("Error generating token", zap.Error(err))
		fail(http.StatusInternalServerError, "Error generating token")
		return
	}
	if err := h.refresh.Save(c.Request.Context(), pair.RefreshToken, user.ID, h.issuer.RefreshTTL()); err != nil {
		h.log.Error("Error storing refresh token", zap.Error(err))
		fail(http.StatusInternalServerError, "Error storing refresh token")
		return
	}

	if isJSON(c) {
		c.JSON(http.StatusOK, pair)
		return
	}
	h.setSessionCookies(c, pair)
	c.Redirect(http.StatusFound, safeNext(input.Next))
}

// Refresh exchanges a live refresh token for a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	var input RefreshInput
	if err := bindOptional(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fromCookie := false
	if input.RefreshToken == "" {
		if cookie, err := c.Cookie(RefreshCookie); err == nil {
			input.RefreshToken = cookie
			fromCookie = true
		}
	}
	if input.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.issuer.ParseRefresh(input.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	stored, err := h.refresh.Lookup(ctx, input.RefreshToken)
	if errors.Is(err, auth.ErrUnknownRefreshToken) || (err == nil && stored != userID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	if err != nil {
		h.log.Error("Failed to look up refresh token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}

	access, err := h.issuer.Access(userID)
	if err != nil {
		h.log.Error("Error generating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	if fromCookie {
		h.setCookie(c, middleware.AccessCookie, access, int(h.issuer.AccessTTL().Seconds()))
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// Logout revokes the refresh token, if any, and ends the browser session.
func (h *Handler) Logout(c *gin.Context) {
	var input RefreshInput
	if err := bindOptional(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.RefreshToken == "" {
		input.RefreshToken, _ = c.Cookie(RefreshCookie)
	}
	if input.RefreshToken != "" {
		if err := h.refresh.Revoke(c.Request.Context(), input.RefreshToken); err != nil {
			h.log.Warn("Failed to revoke refresh token", zap.Error(err))
		}
	}

	h.setCookie(c, middleware.AccessCookie, "", -1)
	h.setCookie(c, RefreshCookie, "", -1)

	if isJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}
	redirectWithFlash(c, "/login", "You have been logged out.")
}

func (h *Handler) setSessionCookies(c *gin.Context, pair auth.TokenPair) {
	h.setCookie(c, middleware.AccessCookie, pair.AccessToken, int(h.issuer.AccessTTL().Seconds()))
	h.setCookie(c, RefreshCookie, pair.RefreshToken, int(h.issuer.RefreshTTL().Seconds()))
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secureCookies, true)
}
