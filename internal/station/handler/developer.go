package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/station/service"
)

// DeveloperHandler handles developer and agent registration routes.
type DeveloperHandler struct {
	svc    *service.AgentService
	logger *zap.Logger
}

// NewDeveloperHandler builds a DeveloperHandler.
func NewDeveloperHandler(svc *service.AgentService, logger *zap.Logger) *DeveloperHandler {
	return &DeveloperHandler{svc: svc, logger: logger}
}

// Register mounts the developer/agent routes. devAuth is applied to every
// route except registration itself.
func (h *DeveloperHandler) Register(rg *gin.RouterGroup, devAuth gin.HandlerFunc) {
	rg.POST("/developers/register", h.RegisterDeveloper)
	rg.POST("/developers/agents", devAuth, h.RegisterAgent)
}

type registerDeveloperRequest struct {
	Name string `json:"name" binding:"required"`
}

type registerDeveloperResponse struct {
	DeveloperID string `json:"developerId"`
	Name        string `json:"name"`
	APIKey      string `json:"apiKey"`
}

// RegisterDeveloper handles POST /developers/register.
func (h *DeveloperHandler) RegisterDeveloper(c *gin.Context) {
	var req registerDeveloperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	dev, rawKey, err := h.svc.RegisterDeveloper(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, registerDeveloperResponse{
		DeveloperID: dev.ID.String(),
		Name:        dev.Name,
		APIKey:      rawKey,
	})
}

type registerAgentRequest struct {
	ExternalID       string  `json:"externalId" binding:"required"`
	IdentityVerified bool    `json:"identityVerified"`
	StakeAmount      float64 `json:"stakeAmount"`
}

// RegisterAgent handles POST /developers/agents.
func (h *DeveloperHandler) RegisterAgent(c *gin.Context) {
	dev, ok := developerFromContext(c)
	if !ok {
		respondBadRequest(c, "developer context missing")
		return
	}

	var req registerAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "externalId is required")
		return
	}

	agent, err := h.svc.RegisterAgent(c.Request.Context(), dev.ID, req.ExternalID, req.IdentityVerified, req.StakeAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, agent)
}
