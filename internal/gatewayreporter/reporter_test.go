package gatewayreporter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
	"github.com/Retr0981/agenttrust/internal/gatewayreporter"
)

func TestReport_postsSingleItemBatch(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer dev-key" {
			t.Errorf("expected bearer dev-key, got %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer srv.Close()

	r := gatewayreporter.New(srv.URL, "dev-key")
	err := r.Report(context.Background(), "gw-1", "agent-1", "jti-1", gatewaypipeline.ReportItem{
		ActionType: "search",
		Outcome:    "success",
	})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	if captured["gatewayId"] != "gw-1" {
		t.Errorf("expected gatewayId gw-1, got %v", captured["gatewayId"])
	}
	actions, ok := captured["actions"].([]any)
	if !ok || len(actions) != 1 {
		t.Fatalf("expected a single-item actions batch, got %v", captured["actions"])
	}
}

func TestReport_errorsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := gatewayreporter.New(srv.URL, "dev-key")
	err := r.Report(context.Background(), "gw-1", "agent-1", "jti-1", gatewaypipeline.ReportItem{
		ActionType: "search",
		Outcome:    "failure",
	})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
