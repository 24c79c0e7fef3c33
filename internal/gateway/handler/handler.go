// Package handler implements the gateway's HTTP surface (spec.md §6): a
// thin gin layer translating requests into calls on
// internal/gatewaypipeline.Pipeline, plus the discovery, action-list, and
// live-session endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/actionregistry"
	"github.com/Retr0981/agenttrust/internal/behavior"
	"github.com/Retr0981/agenttrust/internal/gatewaymetrics"
	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
)

// Handler mounts the gateway's routes.
type Handler struct {
	gatewayID string
	pipeline  *gatewaypipeline.Pipeline
	registry  *actionregistry.Registry
	tracker   *behavior.Tracker
	logger    *zap.Logger
}

// New builds a Handler.
func New(gatewayID string, pipeline *gatewaypipeline.Pipeline, registry *actionregistry.Registry, tracker *behavior.Tracker, logger *zap.Logger) *Handler {
	return &Handler{gatewayID: gatewayID, pipeline: pipeline, registry: registry, tracker: tracker, logger: logger}
}

// Register mounts every gateway route on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/.well-known/agent-gateway", h.Discovery)
	rg.GET("/actions", h.ListActions)
	rg.POST("/actions/:name", h.ExecuteAction)
	rg.GET("/behavior/sessions", h.BehaviorSessions)
}

type discoveryResponse struct {
	GatewayID string   `json:"gatewayId"`
	Actions   []string `json:"actions"`
	Features  []string `json:"features"`
}

// Discovery handles GET /.well-known/agent-gateway.
func (h *Handler) Discovery(c *gin.Context) {
	features := []string{"behavior-tracking", "scope-enforcement"}
	c.JSON(http.StatusOK, discoveryResponse{
		GatewayID: h.gatewayID,
		Actions:   h.registry.Names(),
		Features:  features,
	})
}

// ListActions handles GET /actions.
func (h *Handler) ListActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": h.registry.List()})
}

type executeActionRequest struct {
	Params map[string]any `json:"params"`
}

// ExecuteAction handles POST /actions/{name}.
func (h *Handler) ExecuteAction(c *gin.Context) {
	name := c.Param("name")

	var req executeActionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "malformed request body"})
			return
		}
	}

	resp := h.pipeline.Handle(
		c.Request.Context(),
		time.Now().UTC(),
		c.GetHeader("Authorization"),
		c.GetHeader("X-Agent-Certificate"),
		name,
		req.Params,
	)

	gatewaymetrics.RecordAction(name, resp.Success)
	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		gatewaymetrics.RecordCertVerification(resp.Status != http.StatusUnauthorized)
	}

	body := gin.H{"success": resp.Success}
	if resp.Success {
		body["data"] = resp.Data
	} else {
		body["error"] = resp.Error
	}
	if resp.Advisory != nil {
		body["behavior"] = resp.Advisory
	}
	c.JSON(resp.Status, body)
}

// BehaviorSessions handles GET /behavior/sessions.
func (h *Handler) BehaviorSessions(c *gin.Context) {
	sessions := h.tracker.Snapshot()
	gatewaymetrics.SetActiveSessions(float64(len(sessions)))
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
