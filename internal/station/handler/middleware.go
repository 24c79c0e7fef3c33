package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

const developerContextKey = "station_developer"

type developerLookup interface {
	GetByAPIKey(ctx context.Context, rawKey string) (*model.Developer, error)
}

// RequireDeveloper is bearer-API-key auth middleware (spec.md §6 "bearer").
// Hot-path lookup is a single indexed hash lookup (HashAPIKey + a unique
// index on api_key_hash), satisfying the O(1) requirement of spec.md §9.
func RequireDeveloper(developers developerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing developer API key"})
			c.Abort()
			return
		}
		rawKey := strings.TrimPrefix(authHeader, prefix)

		dev, err := developers.GetByAPIKey(c.Request.Context(), rawKey)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid developer API key"})
			c.Abort()
			return
		}

		c.Set(developerContextKey, dev)
		c.Next()
	}
}

// developerFromContext retrieves the authenticated developer set by
// RequireDeveloper. Callers must only call this on routes mounted behind it.
func developerFromContext(c *gin.Context) (*model.Developer, bool) {
	v, ok := c.Get(developerContextKey)
	if !ok {
		return nil, false
	}
	dev, ok := v.(*model.Developer)
	return dev, ok
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return uuid.UUID{}, false
	}
	return id, true
}
