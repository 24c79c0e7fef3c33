// Package gatewaypipeline implements the gateway's per-request action
// pipeline (spec.md §4.7): credential extraction, certificate verification,
// live-block/scope/threat checks, delegation to the action registry, and
// behavior recording, wired together the way the teacher's HTTP handlers
// chain repository/service calls with structured logging at each step.
package gatewaypipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/actionregistry"
	"github.com/Retr0981/agenttrust/internal/behavior"
	"github.com/Retr0981/agenttrust/internal/certificate"
	"github.com/Retr0981/agenttrust/internal/threatadapter"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// Advisory is attached to a response whenever the session's behavior score
// warrants a heads-up (spec.md §4.7 step 10).
type Advisory struct {
	Score   int      `json:"score"`
	Flags   []string `json:"flags"`
	Warning string   `json:"warning"`
}

// Response is the pipeline's verdict for one request.
type Response struct {
	Status   int
	Success  bool
	Data     any
	Error    string
	Advisory *Advisory
}

// Pipeline wires together certificate verification, the action registry,
// the behavior tracker, and the optional threat analyzer for one gateway.
type Pipeline struct {
	gatewayID string
	verifier  *certificate.Verifier
	registry  *actionregistry.Registry
	tracker   *behavior.Tracker
	analyzer  threatadapter.Analyzer // nil is valid: no ML check configured
	reporter  Reporter
	logger    *zap.Logger
}

// New builds a Pipeline. analyzer may be nil.
func New(gatewayID string, verifier *certificate.Verifier, registry *actionregistry.Registry, tracker *behavior.Tracker, analyzer threatadapter.Analyzer, reporter Reporter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		gatewayID: gatewayID,
		verifier:  verifier,
		registry:  registry,
		tracker:   tracker,
		analyzer:  analyzer,
		reporter:  reporter,
		logger:    logger,
	}
}

// Handle runs the full ten-step pipeline for one POST /actions/{name} call.
func (p *Pipeline) Handle(ctx context.Context, now time.Time, authHeader, certHeader, actionName string, params map[string]any) Response {
	// 1. Extract credential.
	token := extractToken(authHeader, certHeader)
	if token == "" {
		return Response{Status: 401, Error: "missing credential"}
	}

	// 2. Verify certificate locally.
	claims, err := p.verifier.Parse(token)
	if err != nil {
		status, _, msg := trusterr.AsHTTP(err)
		return Response{Status: status, Error: msg}
	}
	if claims.Disabled() {
		return Response{Status: 403, Error: "agent is " + claims.Status}
	}

	agentID := claims.Subject

	// 3. Live-block check.
	if p.tracker.IsBlocked(agentID, now) {
		p.dispatch(agentID, claims.AgentExternalID, claims.ID, "behavioral_block", "failure", map[string]any{"action": actionName})
		return Response{Status: 403, Error: "blocked mid-session"}
	}

	// 4. Action existence.
	if _, ok := p.registry.Get(actionName); !ok {
		p.tracker.RecordAction(agentID, claims.AgentExternalID, actionName, params, false, true, now)
		return Response{
			Status: 404,
			Error:  "unknown action; available: " + strings.Join(p.registry.Names(), ", "),
		}
	}

	// 5. Scope check.
	if !claims.InScope(actionName) {
		behaviorScore, newFlags, blockedNow := p.tracker.RecordAction(agentID, claims.AgentExternalID, actionName, params, false, false, now)
		p.dispatch(agentID, claims.AgentExternalID, claims.ID, "scope_violation", "failure", map[string]any{"action": actionName})
		resp := Response{Status: 403, Error: "action not in certificate scope"}
		if blockedNow {
			resp.Error = "blocked mid-session"
		}
		resp.Advisory = advisoryFor(behaviorScore, newFlags)
		return resp
	}

	// 6. Optional ML threat check. Fail-open: an unavailable or erroring
	// analyzer is treated as safe (spec.md §4.9).
	if p.analyzer != nil {
		report, err := p.analyzer.Analyze(ctx, agentID, params)
		if err != nil {
			p.logger.Warn("threat analyzer error, proceeding fail-open", zap.Error(err))
		} else if !report.Safe {
			p.tracker.RecordAction(agentID, claims.AgentExternalID, actionName, params, false, true, now)
			p.dispatch(agentID, claims.AgentExternalID, claims.ID, "ml_threat_detected", "failure", map[string]any{
				"action":  actionName,
				"threats": report.Threats,
			})
			return Response{Status: 403, Error: "request blocked by threat analysis", Data: report.Threats}
		}
	}

	// 7. Score gate, validation, execution.
	agentCtx := actionregistry.AgentContext{
		AgentID:         agentID,
		AgentExternalID: claims.AgentExternalID,
		Score:           claims.Score,
		Scope:           claims.Scope,
	}
	result := p.registry.Execute(actionName, params, agentCtx)

	// 8. Behavior record.
	behaviorScore, newFlags, blockedNow := p.tracker.RecordAction(agentID, claims.AgentExternalID, actionName, params, result.Success, result.ScoreMet, now)

	// 9. Report dispatch (fire-and-forget).
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	p.dispatch(agentID, claims.AgentExternalID, claims.ID, actionName, outcome, map[string]any{
		"params":        params,
		"behaviorScore": behaviorScore,
		"flags":         newFlags,
		"blocked":       blockedNow,
	})

	// 10. Response shaping.
	var resp Response
	if result.Success {
		resp = Response{Status: 200, Success: true, Data: result.Data}
	} else {
		resp = Response{Status: 403, Error: result.Error}
	}
	if blockedNow {
		resp.Status = 403
		resp.Success = false
		resp.Error = "blocked mid-session"
	}
	resp.Advisory = advisoryFor(behaviorScore, newFlags)
	return resp
}

func advisoryFor(behaviorScore int, newFlags []string) *Advisory {
	if behaviorScore >= 80 && len(newFlags) == 0 {
		return nil
	}
	return &Advisory{
		Score:   behaviorScore,
		Flags:   newFlags,
		Warning: behavior.WarningForScore(behaviorScore),
	}
}

// dispatch fires a report to the station in the background, detached from
// the calling request's context — fire-and-forget submission must survive
// the request that triggered it (spec.md §5).
func (p *Pipeline) dispatch(agentID, externalID, certJTI, actionType, outcome string, metadata map[string]any) {
	if p.reporter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		item := ReportItem{ActionType: actionType, Outcome: outcome, Metadata: metadata, PerformedAt: time.Now().UTC()}
		if err := p.reporter.Report(ctx, p.gatewayID, agentID, certJTI, item); err != nil {
			p.logger.Warn("report dispatch failed",
				zap.String("agentId", agentID),
				zap.String("externalId", externalID),
				zap.String("actionType", actionType),
				zap.Error(err))
		}
	}()
}

func extractToken(authHeader, certHeader string) string {
	if authHeader != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(authHeader, prefix) {
			return strings.TrimPrefix(authHeader, prefix)
		}
	}
	return certHeader
}
