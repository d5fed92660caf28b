package session

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkaraca/session-service/internal/user"
	"github.com/mkaraca/session-service/internal/utils"
)

// AuthMiddleware authenticates requests by the accessToken cookie, resolves
// the user, and stores it in the Gin context.
func AuthMiddleware(userService user.UserService, accessSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, err := c.Cookie(AccessCookieName)
		if err != nil || rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication token missing"})
			return
		}

		claims, err := utils.ParseAccessToken(rawToken, accessSecret)
		if err != nil {
			logger.Warn("access token parse failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			logger.Error("invalid subject claim", zap.Error(err), zap.String("subject", claims.Subject))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		u, err := userService.ReadUserByID(c.Request.Context(), uint(userID))
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			logger.Error("failed to load user by ID", zap.Error(err), zap.Uint64("userID", userID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not validate user"})
			return
		}

		c.Set(user.ContextUserKey, u)
		c.Next()
	}
}
