package gatewaypipeline

import (
	"context"
	"time"
)

// ReportItem is one action outcome the gateway tells the station about,
// carried in the batch body of POST /reports (spec.md §4.8).
type ReportItem struct {
	ActionType  string         `json:"actionType"`
	Outcome     string         `json:"outcome"` // "success" or "failure"
	Metadata    map[string]any `json:"metadata,omitempty"`
	PerformedAt time.Time      `json:"performedAt"`
}

// Reporter dispatches gateway reports to the station. Callers treat this as
// fire-and-forget: failures are logged by the pipeline, never surfaced to
// the agent (spec.md §4.6 step 9, §7 "Upstream").
type Reporter interface {
	Report(ctx context.Context, gatewayID, agentID, certificateJTI string, item ReportItem) error
}
