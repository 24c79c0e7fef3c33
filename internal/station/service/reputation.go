package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/reputation"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// ReputationService answers the factor-breakdown endpoint.
type ReputationService struct {
	agents  agentRepo
	vouches vouchRepo
}

// NewReputationService builds a ReputationService.
func NewReputationService(agents agentRepo, vouches vouchRepo) *ReputationService {
	return &ReputationService{agents: agents, vouches: vouches}
}

// Breakdown returns the per-factor contribution to agentID's current score.
func (s *ReputationService) Breakdown(ctx context.Context, agentID uuid.UUID) (reputation.Breakdown, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return reputation.Breakdown{}, trusterr.NotFoundf("agent not found")
		}
		return reputation.Breakdown{}, trusterr.Internalf(err, "load agent")
	}

	vouchCount, err := s.vouches.CountReceived(ctx, agentID)
	if err != nil {
		return reputation.Breakdown{}, trusterr.Internalf(err, "count vouches")
	}

	return reputation.CalculateBreakdown(reputation.Input{
		IdentityVerified:  agent.IdentityVerified,
		StakeAmount:       agent.StakeAmount,
		VouchesReceived:   vouchCount,
		TotalActions:      agent.TotalActions,
		SuccessfulActions: agent.SuccessfulActions,
		FailedActions:     agent.FailedActions,
		CreatedAt:         agent.CreatedAt,
	}), nil
}
