package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func TestReputationService_Breakdown_rejectsUnknownAgent(t *testing.T) {
	agents := newFakeAgentRepo()
	vouches := newFakeVouchRepo()
	svc := &ReputationService{agents: agents, vouches: vouches}

	_, err := svc.Breakdown(context.Background(), uuid.New())
	if !trusterr.Is(err, trusterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestReputationService_Breakdown_sumsToScore(t *testing.T) {
	agents := newFakeAgentRepo()
	vouches := newFakeVouchRepo()
	svc := &ReputationService{agents: agents, vouches: vouches}

	agent, _ := agents.Create(context.Background(), uuid.New(), "ext-1", true, 500)
	agents.byID[agent.ID].TotalActions = 10
	agents.byID[agent.ID].SuccessfulActions = 8
	agents.byID[agent.ID].FailedActions = 2
	vouches.received[agent.ID] = 3

	breakdown, err := svc.Breakdown(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := breakdown.Base + breakdown.Identity + breakdown.Stake + breakdown.Vouches +
		breakdown.SuccessRate + breakdown.Age - breakdown.FailurePenalty
	if sum < 0 {
		sum = 0
	}
	if sum > 100 {
		sum = 100
	}
	if breakdown.Score != sum {
		t.Fatalf("breakdown components sum to %d, score reports %d", sum, breakdown.Score)
	}
}
