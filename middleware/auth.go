package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"trade-journal/auth"
)

const (
	// AccessCookie carries the access token for browser sessions.
	AccessCookie = "access_token"
	userIDKey    = "user_id"
)

// JWTAuth accepts an access token from the Authorization header or the
// session cookie. Browsers without one are sent to the login page, API
// clients get a 401.
func JWTAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if cookie, err := c.Cookie(AccessCookie); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			reject(c, "Authorization required")
			return
		}

		userID, err := issuer.ParseAccess(tokenString)
		if err != nil {
			reject(c, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func reject(c *gin.Context, message string) {
	if WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// WantsHTML reports whether the request comes from a browser navigating pages
// rather than a script calling the JSON API.
func WantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// UserID returns the authenticated user. Only valid behind JWTAuth.
func UserID(c *gin.Context) uint {
	return c.MustGet(userIDKey).(uint)
}

// Authenticated reports whether JWTAuth accepted the request.
func Authenticated(c *gin.Context) bool {
	_, ok := c.Get(userIDKey)
	return ok
}

// SetUserID marks the request as authenticated as userID.
func SetUserID(c *gin.Context, userID uint) {
	c.Set(userIDKey, userID)
}
