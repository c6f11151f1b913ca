package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/middleware"
	"github.com/carevia/carevia-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext identifies who performs a mutation, for audit columns.
func actorFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil && claims.UserID != "" {
		return claims.UserID
	}
	return "system"
}
