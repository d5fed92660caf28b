package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkaraca/session-service/internal/user"
)

// LoginRequest is the payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionHandler handles authentication endpoints. Tokens travel in
// cookies, never in response bodies.
type SessionHandler struct {
	service SessionService
	logger  *zap.Logger
	cookies CookieSettings
}

// NewSessionHandler registers login and refresh on the given router group.
// Logout needs the access-token middleware, so the caller attaches
// SessionHandler.LogOut to the authenticated group.
func NewSessionHandler(router *gin.RouterGroup, service SessionService, logger *zap.Logger, cookies CookieSettings) *SessionHandler {
	h := &SessionHandler{service: service, logger: logger, cookies: cookies}
	router.POST("/auth/login", h.LogIn)
	router.POST("/auth/refresh", h.Refresh)
	return h
}

// LogIn godoc
// @Summary      Login
// @Description  Authenticate and set the auth cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  user.Profile
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/login [post]
func (h *SessionHandler) LogIn(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := h.service.LogIn(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		setAuthCookies(c, &result.TokenPair, h.cookies)
		c.JSON(http.StatusOK, result.User.Profile())
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.logger.Error("LogIn service failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
	}
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Rotate the refresh token and set fresh auth cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  user.MessageResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *SessionHandler) Refresh(c *gin.Context) {
	incoming, err := c.Cookie(RefreshCookieName)
	if err != nil || incoming == "" {
		clearAuthCookies(c, h.cookies)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), incoming)
	if err != nil {
		clearAuthCookies(c, h.cookies)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	setAuthCookies(c, pair, h.cookies)
	c.JSON(http.StatusOK, user.MessageResponse{Message: "refreshed tokens"})
}

// LogOut godoc
// @Summary      Logout
// @Description  Revoke the session family and clear the auth cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  user.MessageResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *SessionHandler) LogOut(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	if err := h.service.LogOut(c.Request.Context(), refreshToken); err != nil {
		// the session store hiccuped; the client still gets logged out
		h.logger.Error("LogOut service failed", zap.Error(err))
	}

	clearAuthCookies(c, h.cookies)
	c.JSON(http.StatusOK, user.MessageResponse{Message: "logged out"})
}
