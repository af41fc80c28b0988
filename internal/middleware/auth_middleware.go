package middleware

import (
	"net/http"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// AuthMiddleware creates a Gin middleware for JWT authentication. The store
// of every request comes from the verified token, never from the payload.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", err.Error()))
			return
		}

		sess := models.Session{
			StoreID:  claims.StoreID,
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}
		if !sess.Valid() {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Token is not bound to a store", ""))
			return
		}

		// Set user information in the context for downstream handlers
		c.Set(sessionKey, sess)
		c.Set("userID", sess.UserID)
		c.Set("storeID", sess.StoreID)
		c.Set("userRole", sess.Role)

		c.Next()
	}
}

// SessionFromContext returns the session stored by AuthMiddleware.
func SessionFromContext(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok
}

// RoleAuthMiddleware allows the request only when the session role is one of allowedRoles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found. Ensure AuthMiddleware runs first.", ""))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(sess.Role, r) {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+strings.Join(allowedRoles, ", "), ""))
	}
}

// SetSession stores sess on the context, for handlers mounted without AuthMiddleware in tests.
func SetSession(c *gin.Context, sess models.Session) {
	c.Set(sessionKey, sess)
}
