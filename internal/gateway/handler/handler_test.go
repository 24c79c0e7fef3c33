package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/actionregistry"
	"github.com/Retr0981/agenttrust/internal/behavior"
	"github.com/Retr0981/agenttrust/internal/certificate"
	gwhandler "github.com/Retr0981/agenttrust/internal/gateway/handler"
	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
	"github.com/Retr0981/agenttrust/internal/keyloader"
)

type noopReporter struct{}

func (noopReporter) Report(context.Context, string, string, string, gatewaypipeline.ReportItem) error {
	return nil
}

func setupGatewayRouter(t *testing.T, minScore int) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kp, err := keyloader.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	issuer := certificate.NewIssuer(kp.Private, 300*time.Second)
	issued, err := issuer.Issue(certificate.IssueInput{
		AgentID:         "agent-1",
		AgentExternalID: "ext-1",
		Score:           50,
		Status:          "active",
		Scope:           []string{"search"},
	})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	reg, err := actionregistry.New([]actionregistry.Action{{
		Name:     "search",
		MinScore: minScore,
		Parameters: map[string]actionregistry.ParamSpec{
			"query": {Type: actionregistry.TypeString, Required: true},
		},
		Handler: func(_ actionregistry.AgentContext, params map[string]any) (any, error) {
			return []any{params["query"]}, nil
		},
	}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tracker := behavior.New(behavior.DefaultConfig(), nil)
	verifier := certificate.NewVerifier(certificate.StaticKeySource{Key: kp.Public})
	pipe := gatewaypipeline.New("gw-1", verifier, reg, tracker, nil, noopReporter{}, zap.NewNop())

	h := gwhandler.New("gw-1", pipe, reg, tracker, zap.NewNop())
	r := gin.New()
	h.Register(r.Group(""))
	return r, issued.Token
}

func TestExecuteAction_happyPath(t *testing.T) {
	router, token := setupGatewayRouter(t, 30)

	req := httptest.NewRequest(http.MethodPost, "/actions/search", strings.NewReader(`{"params":{"query":"widgets"}}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("expected success:true, got %s", w.Body.String())
	}
}

func TestExecuteAction_insufficientScore(t *testing.T) {
	router, token := setupGatewayRouter(t, 90)

	req := httptest.NewRequest(http.MethodPost, "/actions/search", strings.NewReader(`{"params":{"query":"widgets"}}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestExecuteAction_missingCredential(t *testing.T) {
	router, _ := setupGatewayRouter(t, 30)

	req := httptest.NewRequest(http.MethodPost, "/actions/search", strings.NewReader(`{"params":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListActions_returnsRegisteredActions(t *testing.T) {
	router, _ := setupGatewayRouter(t, 30)

	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"search"`) {
		t.Fatalf("expected search action listed, got %s", w.Body.String())
	}
}

func TestDiscovery_returnsGatewayID(t *testing.T) {
	router, _ := setupGatewayRouter(t, 30)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-gateway", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"gw-1"`) {
		t.Fatalf("expected gatewayId in response, got %s", w.Body.String())
	}
}

func TestBehaviorSessions_returnsEmptySnapshotInitially(t *testing.T) {
	router, _ := setupGatewayRouter(t, 30)

	req := httptest.NewRequest(http.MethodGet, "/behavior/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
