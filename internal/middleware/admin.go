package middleware

import (
	"context"  // Context for the role lookup
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RoleChecker reports whether a user holds the admin role
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// AdminOnlyMiddleware checks the user's role on each request
func AdminOnlyMiddleware(roles RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "Error", "message": "Unauthorized"})
			return
		}
		isAdmin, err := roles.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("Role lookup failed")
		}
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "Error", "message": "Admin access required"})
			return
		}
		c.Next()
	}
}
