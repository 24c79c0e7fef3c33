package gatewaypipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/actionregistry"
	"github.com/Retr0981/agenttrust/internal/behavior"
	"github.com/Retr0981/agenttrust/internal/certificate"
	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
	"github.com/Retr0981/agenttrust/internal/keyloader"
)

type recordingReporter struct {
	mu    sync.Mutex
	items []gatewaypipeline.ReportItem
	done  chan struct{}
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{done: make(chan struct{}, 16)}
}

func (r *recordingReporter) Report(_ context.Context, _, _, _ string, item gatewaypipeline.ReportItem) error {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingReporter) waitForReport(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fire-and-forget report")
	}
}

func newTestPipeline(t *testing.T, minScore int) (*gatewaypipeline.Pipeline, string, *recordingReporter) {
	t.Helper()
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
	reporter := newRecordingReporter()
	logger := zap.NewNop()

	pipe := gatewaypipeline.New("gw-1", verifier, reg, tracker, nil, reporter, logger)
	return pipe, issued.Token, reporter
}

func TestHandle_happyPath(t *testing.T) {
	pipe, token, reporter := newTestPipeline(t, 30)
	resp := pipe.Handle(context.Background(), time.Now(), "Bearer "+token, "", "search", map[string]any{"query": "x"})
	if resp.Status != 200 || !resp.Success {
		t.Fatalf("unexpected response: %+v", resp)
	}
	reporter.waitForReport(t)
}

func TestHandle_scoreGate(t *testing.T) {
	pipe, token, reporter := newTestPipeline(t, 60)
	resp := pipe.Handle(context.Background(), time.Now(), "Bearer "+token, "", "search", map[string]any{"query": "x"})
	if resp.Status != 403 {
		t.Fatalf("expected 403, got %+v", resp)
	}
	want := "Insufficient reputation score: 50 < 60"
	if resp.Error != want {
		t.Errorf("error = %q, want %q", resp.Error, want)
	}
	reporter.waitForReport(t)
}

func TestHandle_missingCredential(t *testing.T) {
	pipe, _, _ := newTestPipeline(t, 30)
	resp := pipe.Handle(context.Background(), time.Now(), "", "", "search", nil)
	if resp.Status != 401 {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestHandle_scopeViolation(t *testing.T) {
	pipe, token, reporter := newTestPipeline(t, 30)
	resp := pipe.Handle(context.Background(), time.Now(), "Bearer "+token, "", "checkout", map[string]any{})
	if resp.Status != 403 {
		t.Fatalf("expected 403 for out-of-scope action, got %+v", resp)
	}
	reporter.waitForReport(t)
}

func TestHandle_unknownAction(t *testing.T) {
	pipe, token, _ := newTestPipeline(t, 30)
	resp := pipe.Handle(context.Background(), time.Now(), "Bearer "+token, "", "checkout-typo", map[string]any{})
	if resp.Status != 404 {
		t.Fatalf("expected 404 for unregistered action (existence precedes scope), got %+v", resp)
	}
}
