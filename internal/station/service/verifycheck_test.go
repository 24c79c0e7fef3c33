package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func newTestVerifyCheckService() (*VerifyCheckService, *fakeAgentRepo) {
	agents := newFakeAgentRepo()
	vouches := newFakeVouchRepo()
	actionLog := &fakeActionLogRepo{}
	events := &fakeEventRepo{}
	svc := &VerifyCheckService{
		agents: agents, vouches: vouches, actionLog: actionLog, events: events, ledger: ledger.NewMemory(),
		pending: make(map[string]pendingAction),
	}
	return svc, agents
}

func TestVerifyCheckService_Check_rejectsUnknownAgent(t *testing.T) {
	svc, _ := newTestVerifyCheckService()
	_, err := svc.Check(context.Background(), uuid.New(), "search", 0, nil)
	if !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestVerifyCheckService_Check_deniesInactiveAgent(t *testing.T) {
	svc, agents := newTestVerifyCheckService()
	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", true, 0)
	agents.byID[agent.ID].Status = model.AgentStatusBanned

	result, err := svc.Check(context.Background(), agent.ID, "search", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected banned agent to be denied")
	}
	if result.ActionID != "" {
		t.Fatalf("expected no actionId for a denied check")
	}
}

func TestVerifyCheckService_Check_allowsWhenScoreMeetsThreshold(t *testing.T) {
	svc, agents := newTestVerifyCheckService()
	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", true, 0)
	agents.byID[agent.ID].ReputationScore = 80

	result, err := svc.Check(context.Background(), agent.ID, "search", 30, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowed, got denied: %s", result.Reason)
	}
	if result.ActionID == "" {
		t.Fatalf("expected an actionId for a later Report call")
	}
}

func TestVerifyCheckService_Report_unknownActionID(t *testing.T) {
	svc, _ := newTestVerifyCheckService()
	err := svc.Report(context.Background(), "nonexistent", "success")
	if !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestVerifyCheckService_Report_recordsOutcomeAndScore(t *testing.T) {
	svc, agents := newTestVerifyCheckService()
	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", true, 0)
	agents.byID[agent.ID].ReputationScore = 80

	result, err := svc.Check(context.Background(), agent.ID, "search", 30, nil)
	if err != nil {
		t.Fatalf("unexpected Check error: %v", err)
	}

	if err := svc.Report(context.Background(), result.ActionID, "success"); err != nil {
		t.Fatalf("unexpected Report error: %v", err)
	}
	if agents.byID[agent.ID].TotalActions != 1 || agents.byID[agent.ID].SuccessfulActions != 1 {
		t.Fatalf("expected outcome recorded, got %+v", agents.byID[agent.ID])
	}

	// Resolving the same actionId twice should fail: it's consumed.
	if err := svc.Report(context.Background(), result.ActionID, "success"); !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected NotFound on double-resolve, got %v", err)
	}
}
