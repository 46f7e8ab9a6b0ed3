package middleware

import (
	"strings"

	"talky/internal/models"
	"talky/internal/services"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "talky_session"

	currentUserKey = "currentUser"
)

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// Auth requires a valid session and stores the user in the gin context.
func Auth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrInvalidAuthToken)
			c.Abort()
			return
		}

		user, err := authService.Authenticate(token)
		if err != nil {
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRoles rejects authenticated users lacking every listed role.
// Must run after Auth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			apperrors.HandleError(c, apperrors.ErrInvalidAuthToken)
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.HasRole(role) {
				c.Next()
				return
			}
		}
		// Role failures read as not-found so the admin area's shape
		// leaks nothing.
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		c.Abort()
	}
}

// CurrentUser returns the authenticated user, or nil outside Auth.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
