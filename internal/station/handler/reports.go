package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/station/service"
)

// ReportsHandler handles the gateway's batch report ingestion endpoint
// (spec.md §4.8, §6 POST /reports).
type ReportsHandler struct {
	svc    *service.ReportService
	logger *zap.Logger
}

// NewReportsHandler builds a ReportsHandler.
func NewReportsHandler(svc *service.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{svc: svc, logger: logger}
}

// Register mounts POST /reports, bearer-authenticated.
func (h *ReportsHandler) Register(rg *gin.RouterGroup, devAuth gin.HandlerFunc) {
	rg.POST("/reports", devAuth, h.Ingest)
}

type reportActionItem struct {
	ActionType  string         `json:"actionType" binding:"required"`
	Outcome     string         `json:"outcome" binding:"required"`
	Metadata    map[string]any `json:"metadata"`
	PerformedAt time.Time      `json:"performedAt"`
}

type ingestReportsRequest struct {
	AgentID        string              `json:"agentId" binding:"required"`
	GatewayID      string              `json:"gatewayId" binding:"required"`
	CertificateJTI string              `json:"certificateJti" binding:"required"`
	Actions        []reportActionItem  `json:"actions" binding:"required"`
}

// Ingest handles POST /reports.
func (h *ReportsHandler) Ingest(c *gin.Context) {
	var req ingestReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "agentId, gatewayId, certificateJti, and actions are required")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		respondBadRequest(c, "invalid agentId")
		return
	}

	actions := make([]service.ReportAction, len(req.Actions))
	for i, a := range req.Actions {
		actions[i] = service.ReportAction{
			ActionType:  a.ActionType,
			Outcome:     a.Outcome,
			Metadata:    a.Metadata,
			PerformedAt: a.PerformedAt,
		}
	}

	summary, err := h.svc.Ingest(c.Request.Context(), agentID, req.GatewayID, req.CertificateJTI, actions)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, summary)
}
