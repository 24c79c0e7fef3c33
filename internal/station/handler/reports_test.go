package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/station/handler"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/service"
)

func setupReportsRouter(t *testing.T) (*gin.Engine, *fakeAgentRepo, *fakeCertRepo, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agents := newFakeAgentRepo()
	agent := &model.Agent{
		ID: uuid.New(), ExternalID: "ext-1", Status: model.AgentStatusActive,
		ReputationScore: 50, CreatedAt: time.Now().UTC(),
	}
	agents.agents[agent.ID] = agent

	certs := newFakeCertRepo()
	certs.byJTI["jti-1"] = &model.CertificateRecord{JTI: "jti-1", AgentID: agent.ID}

	svc := service.NewReportService(agents, &fakeVouchRepo{}, certs, &fakeActionLogRepo{}, &fakeEventRepo{}, ledger.NewMemory())
	h := handler.NewReportsHandler(svc, zap.NewNop())

	r := gin.New()
	root := r.Group("")
	h.Register(root, func(c *gin.Context) { c.Next() })
	return r, agents, certs, agent.ID
}

func TestIngestReports_countsOutcomes(t *testing.T) {
	router, agents, _, agentID := setupReportsRouter(t)

	body := `{
		"agentId":"` + agentID.String() + `",
		"gatewayId":"gw-1",
		"certificateJti":"jti-1",
		"actions":[
			{"actionType":"search","outcome":"success"},
			{"actionType":"search","outcome":"failure"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if agents.agents[agentID].TotalActions != 2 {
		t.Fatalf("expected 2 total actions, got %d", agents.agents[agentID].TotalActions)
	}
	if !strings.Contains(w.Body.String(), `"successCount":1`) {
		t.Fatalf("expected successCount:1, got %s", w.Body.String())
	}
}

func TestIngestReports_rejectsCertForDifferentAgent(t *testing.T) {
	router, agents, _, _ := setupReportsRouter(t)

	other := &model.Agent{ID: uuid.New(), ExternalID: "ext-2", Status: model.AgentStatusActive, CreatedAt: time.Now().UTC()}
	agents.agents[other.ID] = other

	body := `{
		"agentId":"` + other.ID.String() + `",
		"gatewayId":"gw-1",
		"certificateJti":"jti-1",
		"actions":[{"actionType":"search","outcome":"success"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIngestReports_rejectsMissingFields(t *testing.T) {
	router, _, _, _ := setupReportsRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
