package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	// RefreshCookiePath scopes the refresh cookie to the one endpoint that
	// consumes it.
	RefreshCookiePath = "/api/auth/refresh"
)

// CookieSettings captures everything the handlers need to emit auth cookies.
type CookieSettings struct {
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	// Secure is set in production only.
	Secure bool
}

func setAuthCookies(c *gin.Context, pair *TokenPair, settings CookieSettings) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(settings.AccessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     RefreshCookiePath,
		MaxAge:   int(settings.RefreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(c *gin.Context, settings CookieSettings) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
