package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/middleware"
	"github.com/docflow-hr/docflow-api/internal/models"
)

// authContext carries the tenant and actor identity extracted from the
// verified JWT. Handlers never read org or actor ids from the payload.
type authContext struct {
	OrgID      string
	ActorID    string
	ActorEmail string
	Role       models.UserRole
}

func currentAuth(c *gin.Context) (authContext, bool) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return authContext{}, false
	}
	return authContext{
		OrgID:      claims.OrgID,
		ActorID:    claims.UserID,
		ActorEmail: claims.Email,
		Role:       claims.Role,
	}, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
