// Package gatewayreporter implements gatewaypipeline.Reporter over HTTP,
// posting fire-and-forget outcome reports to the station's POST /reports
// endpoint. It is the gateway-side mirror of pkg/agentclient's certificate
// fetch: same bearer-over-developer-API-key auth, same JSON envelope.
package gatewayreporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
)

// HTTPReporter posts each outcome as a single-item batch to the station.
type HTTPReporter struct {
	stationBase string
	apiKey      string
	httpClient  *http.Client
}

// New creates an HTTPReporter. stationBase is the station's base URL;
// apiKey authenticates as the developer that owns the reporting gateway.
func New(stationBase, apiKey string) *HTTPReporter {
	return &HTTPReporter{
		stationBase: stationBase,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Report implements gatewaypipeline.Reporter.
func (r *HTTPReporter) Report(ctx context.Context, gatewayID, agentID, certificateJTI string, item gatewaypipeline.ReportItem) error {
	body := map[string]any{
		"agentId":        agentID,
		"gatewayId":      gatewayID,
		"certificateJti": certificateJTI,
		"actions":        []gatewaypipeline.ReportItem{item},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.stationBase+"/reports", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("station returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
