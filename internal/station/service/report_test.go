package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func newTestReportService() (*ReportService, *fakeAgentRepo, *fakeCertRepo) {
	agents := newFakeAgentRepo()
	vouches := newFakeVouchRepo()
	certs := newFakeCertRepo()
	actionLog := &fakeActionLogRepo{}
	events := &fakeEventRepo{}
	svc := &ReportService{
		agents: agents, vouches: vouches, certificates: certs,
		actionLog: actionLog, events: events, ledger: ledger.NewMemory(),
	}
	return svc, agents, certs
}

func TestReportService_Ingest_rejectsUnknownAgent(t *testing.T) {
	svc, _, _ := newTestReportService()
	_, err := svc.Ingest(context.Background(), uuid.New(), "gw-1", "jti-1", nil)
	if !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestReportService_Ingest_rejectsCertForDifferentAgent(t *testing.T) {
	svc, agents, certs := newTestReportService()
	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", false, 0)
	other, _ := agents.Create(context.Background(), uuid.New(), "ext-2", false, 0)
	certs.byJTI["jti-1"] = &model.CertificateRecord{JTI: "jti-1", AgentID: other.ID}

	_, err := svc.Ingest(context.Background(), agent.ID, "gw-1", "jti-1", nil)
	if !trusterr.Is(err, trusterr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestReportService_Ingest_countsOutcomesAndRecomputesScore(t *testing.T) {
	svc, agents, certs := newTestReportService()
	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", true, 0)
	certs.byJTI["jti-1"] = &model.CertificateRecord{JTI: "jti-1", AgentID: agent.ID}

	actions := []ReportAction{
		{ActionType: "search", Outcome: "success", PerformedAt: time.Now()},
		{ActionType: "search", Outcome: "success", PerformedAt: time.Now()},
		{ActionType: "order", Outcome: "failure", PerformedAt: time.Now()},
	}

	summary, err := svc.Ingest(context.Background(), agent.ID, "gw-1", "jti-1", actions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ActionsProcessed != 3 || summary.SuccessCount != 2 || summary.FailureCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if agents.byID[agent.ID].TotalActions != 3 {
		t.Fatalf("expected 3 total actions recorded, got %d", agents.byID[agent.ID].TotalActions)
	}
	if summary.NewScore != agents.byID[agent.ID].ReputationScore {
		t.Fatalf("summary score %d does not match persisted score %d", summary.NewScore, agents.byID[agent.ID].ReputationScore)
	}
}

type fakeActionLogRepo struct {
	entries []model.ActionLogEntry
}

func (f *fakeActionLogRepo) Append(_ context.Context, agentID uuid.UUID, actionType string, decision model.Decision, reason string, metadata map[string]any) (*model.ActionLogEntry, error) {
	e := &model.ActionLogEntry{ID: uuid.New(), AgentID: agentID, ActionType: actionType, Decision: decision, Reason: reason, Metadata: metadata}
	f.entries = append(f.entries, *e)
	return e, nil
}
