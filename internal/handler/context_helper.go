package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adm-api/internal/middleware"
	"github.com/noah-isme/uni-adm-api/internal/models"
)

// actorID extracts the authenticated operator's id from the gin context.
// Empty when the route is unauthenticated.
func actorID(c *gin.Context) string {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return ""
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}
