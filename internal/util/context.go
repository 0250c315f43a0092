package util

import (
	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key the auth middleware stores the viewer under
const ContextUserID = "user_id"

// GetUserIDFromContext extracts the authenticated viewer id.
// If the request is not authenticated it responds 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		RespondUnauthorized(c, "")
		return "", false
	}
	return userID, true
}
