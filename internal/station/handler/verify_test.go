package handler_test

import (
	"context"
	"encoding/json"
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

func setupVerifyRouter(t *testing.T) (*gin.Engine, *fakeAgentRepo, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agents := newFakeAgentRepo()
	agent := &model.Agent{
		ID: uuid.New(), ExternalID: "ext-1", Status: model.AgentStatusActive,
		ReputationScore: 70, CreatedAt: time.Now().UTC(),
	}
	agents.agents[agent.ID] = agent

	svc := service.NewVerifyCheckService(agents, &fakeVouchRepo{}, &fakeActionLogRepo{}, &fakeEventRepo{}, ledger.NewMemory())
	h := handler.NewVerifyHandler(svc, zap.NewNop())

	r := gin.New()
	root := r.Group("")
	h.Register(root, func(c *gin.Context) { c.Next() })
	return r, agents, agent.ID
}

type fakeActionLogRepo struct{}

func (f *fakeActionLogRepo) Append(_ context.Context, _ uuid.UUID, _ string, _ model.Decision, _ string, _ map[string]any) (*model.ActionLogEntry, error) {
	return &model.ActionLogEntry{ID: uuid.New()}, nil
}

// extractJSONField pulls a top-level string field out of a handler's
// {"success":true,"data":{...}} envelope.
func extractJSONField(t *testing.T, body, field string) string {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	v, ok := envelope.Data[field].(string)
	if !ok {
		t.Fatalf("field %q not found or not a string in %s", field, body)
	}
	return v
}

func TestVerify_allowsWhenScoreMeetsThreshold(t *testing.T) {
	router, _, agentID := setupVerifyRouter(t)

	body := `{"agentId":"` + agentID.String() + `","actionType":"search","threshold":50}`
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"allowed":true`) {
		t.Fatalf("expected allowed:true, got %s", w.Body.String())
	}
}

func TestVerify_rejectsMissingFields(t *testing.T) {
	router, _, _ := setupVerifyRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReport_unknownActionIDReturnsNotFound(t *testing.T) {
	router, _, _ := setupVerifyRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(`{"actionId":"does-not-exist","outcome":"success"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyThenReport_recordsOutcome(t *testing.T) {
	router, agents, agentID := setupVerifyRouter(t)

	checkReq := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(
		`{"agentId":"`+agentID.String()+`","actionType":"search","threshold":0}`))
	checkReq.Header.Set("Content-Type", "application/json")
	checkW := httptest.NewRecorder()
	router.ServeHTTP(checkW, checkReq)
	if checkW.Code != http.StatusOK {
		t.Fatalf("setup: verify failed: %d: %s", checkW.Code, checkW.Body.String())
	}

	actionID := extractJSONField(t, checkW.Body.String(), "actionId")

	reportReq := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(
		`{"actionId":"`+actionID+`","outcome":"success"}`))
	reportReq.Header.Set("Content-Type", "application/json")
	reportW := httptest.NewRecorder()
	router.ServeHTTP(reportW, reportReq)

	if reportW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", reportW.Code, reportW.Body.String())
	}
	if agents.agents[agentID].TotalActions != 1 {
		t.Fatalf("expected 1 total action recorded, got %d", agents.agents[agentID].TotalActions)
	}
}
