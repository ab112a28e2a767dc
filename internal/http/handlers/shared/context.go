package shared

import (
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/models"

	"github.com/gin-gonic/gin"
)

// ContextKeyUserID and ContextKeyUser are set by the auth middleware.
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "auth_user"
)

// GetUserID reads the authenticated user id, writing the error envelope
// when it is missing.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "user id invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "user id invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "user id type invalid", nil)
		return 0, false
	}
}

// GetUser reads the authenticated user record loaded by the middleware.
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		RespondError(c, response.CodeInternal, "user type invalid", nil)
		return nil, false
	}
	return user, true
}
