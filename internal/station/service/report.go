package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/reputation"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// ReportAction is one item in a gateway's batch report body.
type ReportAction struct {
	ActionType  string
	Outcome     string // "success" or "failure"
	Metadata    map[string]any
	PerformedAt time.Time
}

// ReportSummary is returned from POST /reports (spec.md §4.8).
type ReportSummary struct {
	AgentID          uuid.UUID `json:"agentId"`
	ActionsProcessed int       `json:"actionsProcessed"`
	SuccessCount     int       `json:"successCount"`
	FailureCount     int       `json:"failureCount"`
	NewScore         int       `json:"newReputationScore"`
}

const reputationFailureDelta = -5

// actionLogRepo is the slice of ActionLogRepository that ReportService and
// VerifyCheckService need. *repository.ActionLogRepository satisfies this.
type actionLogRepo interface {
	Append(ctx context.Context, agentID uuid.UUID, actionType string, decision model.Decision, reason string, metadata map[string]any) (*model.ActionLogEntry, error)
}

// ReportService ingests gateway batch reports, appending the action log and
// reputation event trails before recomputing the agent's score once per
// batch.
type ReportService struct {
	agents       agentRepo
	vouches      vouchRepo
	certificates certRepo
	actionLog    actionLogRepo
	events       eventRepo
	ledger       ledger.Ledger
}

// NewReportService builds a ReportService.
func NewReportService(agents agentRepo, vouches vouchRepo, certificates certRepo, actionLog actionLogRepo, events eventRepo, led ledger.Ledger) *ReportService {
	return &ReportService{agents: agents, vouches: vouches, certificates: certificates, actionLog: actionLog, events: events, ledger: led}
}

// Ingest validates that agentID exists and that certificateJTI belongs to
// it, then processes each action item in order: append action-log entry,
// increment the relevant counter, append a reputation event. After all
// items it recomputes and persists the score exactly once.
func (s *ReportService) Ingest(ctx context.Context, agentID uuid.UUID, gatewayID, certificateJTI string, actions []ReportAction) (ReportSummary, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ReportSummary{}, trusterr.NotFoundf("agent not found")
		}
		return ReportSummary{}, trusterr.Internalf(err, "load agent")
	}

	cert, err := s.certificates.GetByJTI(ctx, certificateJTI)
	if err != nil {
		if err == repository.ErrNotFound {
			return ReportSummary{}, trusterr.NotFoundf("certificate not found")
		}
		return ReportSummary{}, trusterr.Internalf(err, "load certificate")
	}
	if cert.AgentID != agentID {
		return ReportSummary{}, trusterr.BadRequestf("certificate does not belong to agent")
	}

	var successCount, failureCount int
	for _, action := range actions {
		success := action.Outcome == "success"
		if success {
			successCount++
		} else {
			failureCount++
		}

		reason := "reported by gateway " + gatewayID
		if _, err := s.actionLog.Append(ctx, agentID, action.ActionType, model.DecisionAllowed, reason, action.Metadata); err != nil {
			return ReportSummary{}, trusterr.Internalf(err, "append action log entry")
		}
		if s.ledger != nil {
			if _, err := s.ledger.Append(ctx, agentID.String(), ledger.EntryActionLog, gatewayID, map[string]any{
				"actionType": action.ActionType, "outcome": action.Outcome, "metadata": action.Metadata,
			}); err != nil {
				return ReportSummary{}, trusterr.Internalf(err, "append ledger entry")
			}
		}

		if err := s.agents.RecordOutcome(ctx, agentID, success); err != nil {
			return ReportSummary{}, trusterr.Internalf(err, "record outcome")
		}
		if success {
			agent.SuccessfulActions++
		} else {
			agent.FailedActions++
		}
		agent.TotalActions++

		eventType, delta := model.EventSuccess, 0
		if !success {
			eventType, delta = model.EventFailure, reputationFailureDelta
		}
		if _, err := s.events.Append(ctx, agentID, eventType, delta); err != nil {
			return ReportSummary{}, trusterr.Internalf(err, "append reputation event")
		}
	}

	vouchCount, err := s.vouches.CountReceived(ctx, agentID)
	if err != nil {
		return ReportSummary{}, trusterr.Internalf(err, "count vouches")
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
	if err := s.agents.UpdateScore(ctx, agentID, newScore); err != nil {
		return ReportSummary{}, trusterr.Internalf(err, "update score")
	}

	return ReportSummary{
		AgentID:          agentID,
		ActionsProcessed: len(actions),
		SuccessCount:     successCount,
		FailureCount:     failureCount,
		NewScore:         newScore,
	}, nil
}
