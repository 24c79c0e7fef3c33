package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/station/service"
)

// VerifyHandler handles the station's direct pre-/post-action check pair
// (spec.md §6 POST /verify, POST /report).
type VerifyHandler struct {
	svc    *service.VerifyCheckService
	logger *zap.Logger
}

// NewVerifyHandler builds a VerifyHandler.
func NewVerifyHandler(svc *service.VerifyCheckService, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{svc: svc, logger: logger}
}

// Register mounts the verify/report routes, both bearer-authenticated.
func (h *VerifyHandler) Register(rg *gin.RouterGroup, devAuth gin.HandlerFunc) {
	rg.POST("/verify", devAuth, h.Verify)
	rg.POST("/report", devAuth, h.Report)
}

type verifyRequest struct {
	AgentID    string         `json:"agentId" binding:"required"`
	ActionType string         `json:"actionType" binding:"required"`
	Threshold  int            `json:"threshold"`
	Context    map[string]any `json:"context"`
}

// Verify handles POST /verify.
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "agentId and actionType are required")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		respondBadRequest(c, "invalid agentId")
		return
	}

	result, err := h.svc.Check(c.Request.Context(), agentID, req.ActionType, req.Threshold, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

type reportRequest struct {
	ActionID string `json:"actionId" binding:"required"`
	Outcome  string `json:"outcome" binding:"required"`
}

// Report handles POST /report.
func (h *VerifyHandler) Report(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "actionId and outcome are required")
		return
	}

	if err := h.svc.Report(c.Request.Context(), req.ActionID, req.Outcome); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"acknowledged": true})
}
