package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/station/service"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// agentByExternalIDLookup is the slice of AgentRepository the reputation
// handler needs. *repository.AgentRepository satisfies this.
type agentByExternalIDLookup interface {
	GetByExternalID(ctx context.Context, developerID uuid.UUID, externalID string) (*model.Agent, error)
}

// ReputationHandler serves the per-factor score breakdown.
type ReputationHandler struct {
	svc    *service.ReputationService
	agents agentByExternalIDLookup
	logger *zap.Logger
}

// NewReputationHandler builds a ReputationHandler. Callers ordinarily pass
// a *repository.AgentRepository, which satisfies agentByExternalIDLookup.
func NewReputationHandler(svc *service.ReputationService, agents agentByExternalIDLookup, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{svc: svc, agents: agents, logger: logger}
}

// Register mounts GET /agents/{externalId}/reputation, bearer-authenticated.
func (h *ReputationHandler) Register(rg *gin.RouterGroup, devAuth gin.HandlerFunc) {
	rg.GET("/agents/:externalId/reputation", devAuth, h.Breakdown)
}

// Breakdown handles GET /agents/{externalId}/reputation.
func (h *ReputationHandler) Breakdown(c *gin.Context) {
	dev, ok := developerFromContext(c)
	if !ok {
		respondBadRequest(c, "developer context missing")
		return
	}

	externalID := c.Param("externalId")
	agent, err := h.agents.GetByExternalID(c.Request.Context(), dev.ID, externalID)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(c, trusterr.NotFoundf("agent not found"))
			return
		}
		respondError(c, trusterr.Internalf(err, "load agent"))
		return
	}

	breakdown, err := h.svc.Breakdown(c.Request.Context(), agent.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, breakdown)
}
