package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/reputation"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// pendingActionTTL bounds how long a POST /verify decision stays eligible
// for a matching POST /report before it is forgotten.
const pendingActionTTL = 10 * time.Minute

type pendingAction struct {
	agentID    uuid.UUID
	actionType string
	createdAt  time.Time
}

// VerifyCheckService implements the station's direct pre-/post-action pair
// (spec.md §6 POST /verify, POST /report) — a lighter-weight path than the
// gateway pipeline, for callers that want a single allow/deny decision plus
// an explicit later outcome report without running a gateway in front.
type VerifyCheckService struct {
	agents    agentRepo
	vouches   vouchRepo
	actionLog actionLogRepo
	events    eventRepo
	ledger    ledger.Ledger

	mu      sync.Mutex
	pending map[string]pendingAction
}

// NewVerifyCheckService builds a VerifyCheckService.
func NewVerifyCheckService(agents agentRepo, vouches vouchRepo, actionLog actionLogRepo, events eventRepo, led ledger.Ledger) *VerifyCheckService {
	return &VerifyCheckService{
		agents:    agents,
		vouches:   vouches,
		actionLog: actionLog,
		events:    events,
		ledger:    led,
		pending:   make(map[string]pendingAction),
	}
}

// CheckResult is the payload for POST /verify.
type CheckResult struct {
	Allowed  bool   `json:"allowed"`
	Score    int    `json:"score"`
	Reason   string `json:"reason"`
	ActionID string `json:"actionId,omitempty"`
}

// Check evaluates agentID against threshold (defaulting to 0, i.e. any
// active agent passes) for actionType, logs the decision, and returns an
// actionId the caller can later resolve with Report.
func (s *VerifyCheckService) Check(ctx context.Context, agentID uuid.UUID, actionType string, threshold int, context_ map[string]any) (CheckResult, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return CheckResult{}, trusterr.NotFoundf("agent not found")
		}
		return CheckResult{}, trusterr.Internalf(err, "load agent")
	}

	if agent.Status != model.AgentStatusActive {
		result := CheckResult{Allowed: false, Score: agent.ReputationScore, Reason: fmt.Sprintf("agent is %s", agent.Status)}
		s.logDecision(ctx, agentID, actionType, model.DecisionDenied, result.Reason, context_)
		return result, nil
	}

	allowed := agent.ReputationScore >= threshold
	reason := "score meets threshold"
	decision := model.DecisionAllowed
	if !allowed {
		reason = fmt.Sprintf("score %d below threshold %d", agent.ReputationScore, threshold)
		decision = model.DecisionDenied
	}

	actionID, err := newActionID()
	if err != nil {
		return CheckResult{}, trusterr.Internalf(err, "generate action id")
	}

	s.mu.Lock()
	s.pending[actionID] = pendingAction{agentID: agentID, actionType: actionType, createdAt: time.Now().UTC()}
	s.mu.Unlock()

	s.logDecision(ctx, agentID, actionType, decision, reason, context_)

	return CheckResult{Allowed: allowed, Score: agent.ReputationScore, Reason: reason, ActionID: actionID}, nil
}

// Report resolves a previously issued actionId with its outcome, updating
// the agent's action counters and reputation event trail exactly as a
// single-item batch report would (spec.md §4.8's per-item steps).
func (s *VerifyCheckService) Report(ctx context.Context, actionID, outcome string) error {
	s.mu.Lock()
	pending, ok := s.pending[actionID]
	if ok {
		delete(s.pending, actionID)
	}
	s.mu.Unlock()

	if !ok {
		return trusterr.NotFoundf("unknown or expired actionId")
	}
	if time.Since(pending.createdAt) > pendingActionTTL {
		return trusterr.NotFoundf("actionId has expired")
	}

	success := outcome == "success"
	if err := s.agents.RecordOutcome(ctx, pending.agentID, success); err != nil {
		return trusterr.Internalf(err, "record outcome")
	}

	eventType, delta := model.EventSuccess, 0
	if !success {
		eventType, delta = model.EventFailure, reputationFailureDelta
	}
	if _, err := s.events.Append(ctx, pending.agentID, eventType, delta); err != nil {
		return trusterr.Internalf(err, "append reputation event")
	}

	agent, err := s.agents.GetByID(ctx, pending.agentID)
	if err != nil {
		return trusterr.Internalf(err, "reload agent")
	}
	vouchCount, err := s.vouches.CountReceived(ctx, pending.agentID)
	if err != nil {
		return trusterr.Internalf(err, "count vouches")
	}
	newScore := reputation.Calculate(reputation.Input{
		IdentityVerified:  agent.IdentityVerified,
		StakeAmount:       agent.StakeAmount,
		VouchesReceived:   vouchCount,
		TotalActions:      agent.TotalActions,
		SuccessfulActions: agent.SuccessfulActions,
		FailedActions:     agent.FailedActions,
		CreatedAt:         agent.CreatedAt,
	})
	return s.agents.UpdateScore(ctx, pending.agentID, newScore)
}

func (s *VerifyCheckService) logDecision(ctx context.Context, agentID uuid.UUID, actionType string, decision model.Decision, reason string, metadata map[string]any) {
	_, _ = s.actionLog.Append(ctx, agentID, actionType, decision, reason, metadata)
	if s.ledger != nil {
		_, _ = s.ledger.Append(ctx, agentID.String(), ledger.EntryActionLog, "station", map[string]any{
			"actionType": actionType, "decision": decision, "reason": reason,
		})
	}
}

func newActionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
