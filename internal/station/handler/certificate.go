package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/certificate"
	"github.com/Retr0981/agenttrust/internal/station/service"
)

const rfc3339 = time.RFC3339

// CertificateHandler handles certificate issuance and remote verification.
type CertificateHandler struct {
	svc      *service.CertificateService
	verifier *certificate.Verifier
	logger   *zap.Logger
}

// NewCertificateHandler builds a CertificateHandler.
func NewCertificateHandler(svc *service.CertificateService, verifier *certificate.Verifier, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{svc: svc, verifier: verifier, logger: logger}
}

// Register mounts the certificate routes. devAuth guards issuance only;
// remote verification is unauthenticated (spec.md §6).
func (h *CertificateHandler) Register(rg *gin.RouterGroup, devAuth gin.HandlerFunc) {
	rg.POST("/certificates/request", devAuth, h.RequestCertificate)
	rg.GET("/certificates/verify", h.VerifyCertificate)
}

type requestCertificateRequest struct {
	AgentID string   `json:"agentId" binding:"required"`
	Scope   []string `json:"scope"`
}

type requestCertificateResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	Score     int    `json:"score"`
}

// RequestCertificate handles POST /certificates/request.
func (h *CertificateHandler) RequestCertificate(c *gin.Context) {
	dev, ok := developerFromContext(c)
	if !ok {
		respondBadRequest(c, "developer context missing")
		return
	}

	var req requestCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "agentId is required")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		respondBadRequest(c, "invalid agentId")
		return
	}

	issued, err := h.svc.Issue(c.Request.Context(), dev.ID, agentID, req.Scope)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, requestCertificateResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt.Format(rfc3339),
		Score:     issued.Score,
	})
}

// VerifyCertificate handles GET /certificates/verify?token=….
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondBadRequest(c, "token query parameter is required")
		return
	}

	result, err := h.svc.VerifyRemote(c.Request.Context(), h.verifier, token)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}
