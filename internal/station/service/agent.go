// Package service implements the station's business logic: agent/developer
// registration, vouching, certificate issuance, report ingestion, and
// reputation recomputation. Handlers stay thin translators to/from gin;
// every decision lives here, grounded on the teacher's separation between
// internal/registry/repository (persistence) and the HTTP layer.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/ledger"
	"github.com/Retr0981/agenttrust/internal/reputation"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// developerRepo is the slice of DeveloperRepository that AgentService needs.
// *repository.DeveloperRepository satisfies this.
type developerRepo interface {
	Create(ctx context.Context, name string) (*model.Developer, string, error)
}

// agentRepo is the slice of AgentRepository that AgentService needs.
// *repository.AgentRepository satisfies this.
type agentRepo interface {
	Create(ctx context.Context, developerID uuid.UUID, externalID string, identityVerified bool, stakeAmount float64) (*model.Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]*model.Agent, error)
	RecordOutcome(ctx context.Context, id uuid.UUID, success bool) error
	UpdateScore(ctx context.Context, id uuid.UUID, newScore int) error
}

// vouchRepo is the slice of VouchRepository shared by every service that
// needs a received-vouch count or to record a new vouch.
// *repository.VouchRepository satisfies this.
type vouchRepo interface {
	Create(ctx context.Context, voucherID, vouchedID uuid.UUID, weight int) (*model.Vouch, error)
	CountReceived(ctx context.Context, vouchedID uuid.UUID) (int, error)
}

// eventRepo is the slice of ReputationEventRepository every score-changing
// service needs. *repository.ReputationEventRepository satisfies this.
type eventRepo interface {
	Append(ctx context.Context, agentID uuid.UUID, eventType model.ReputationEventType, scoreChange int) (*model.ReputationEvent, error)
}

// AgentService handles developer registration, agent registration, and
// vouching (spec.md §3, §6).
type AgentService struct {
	developers developerRepo
	agents     agentRepo
	vouches    vouchRepo
	events     eventRepo
	ledger     ledger.Ledger
}

// NewAgentService builds an AgentService. developers, agents, vouches, and
// events are ordinarily *repository.DeveloperRepository,
// *repository.AgentRepository, *repository.VouchRepository, and
// *repository.ReputationEventRepository respectively; the parameter types
// are narrowed to what this service actually calls so tests can substitute
// fakes.
func NewAgentService(developers developerRepo, agents agentRepo, vouches vouchRepo, events eventRepo, led ledger.Ledger) *AgentService {
	return &AgentService{developers: developers, agents: agents, vouches: vouches, events: events, ledger: led}
}

// RegisterDeveloper creates a new developer and returns the one-time raw API
// key.
func (s *AgentService) RegisterDeveloper(ctx context.Context, name string) (*model.Developer, string, error) {
	if name == "" {
		return nil, "", trusterr.BadRequestf("name is required")
	}
	return s.developers.Create(ctx, name)
}

// RegisterAgent creates a new agent under developerID, computing its initial
// reputation score from a freshly created (zero-history) input.
func (s *AgentService) RegisterAgent(ctx context.Context, developerID uuid.UUID, externalID string, identityVerified bool, stakeAmount float64) (*model.Agent, error) {
	if externalID == "" {
		return nil, trusterr.BadRequestf("externalId is required")
	}
	if stakeAmount < 0 {
		return nil, trusterr.BadRequestf("stakeAmount must be non-negative")
	}

	agent, err := s.agents.Create(ctx, developerID, externalID, identityVerified, stakeAmount)
	if err != nil {
		if err == repository.ErrConflict {
			return nil, trusterr.Conflictf("agent %q already registered for this developer", externalID)
		}
		return nil, trusterr.Internalf(err, "create agent")
	}

	score := reputation.Calculate(reputation.Input{
		IdentityVerified: agent.IdentityVerified,
		StakeAmount:      agent.StakeAmount,
		CreatedAt:        agent.CreatedAt,
	})
	if err := s.agents.UpdateScore(ctx, agent.ID, score); err != nil {
		return nil, trusterr.Internalf(err, "set initial score")
	}
	agent.ReputationScore = score
	return agent, nil
}

// ListAgents returns every agent owned by developerID.
func (s *AgentService) ListAgents(ctx context.Context, developerID uuid.UUID) ([]*model.Agent, error) {
	agents, err := s.agents.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, trusterr.Internalf(err, "list agents")
	}
	return agents, nil
}

// Vouch records voucherID vouching for vouchedID with the given weight, then
// recomputes vouchedID's score. The voucher must have a cached score of at
// least 60 at the time of the call (spec.md §3).
func (s *AgentService) Vouch(ctx context.Context, voucherID, vouchedID uuid.UUID, weight int) error {
	if weight < 1 || weight > 5 {
		return trusterr.BadRequestf("weight must be between 1 and 5")
	}
	if voucherID == vouchedID {
		return trusterr.BadRequestf("an agent cannot vouch for itself")
	}

	voucher, err := s.agents.GetByID(ctx, voucherID)
	if err != nil {
		if err == repository.ErrNotFound {
			return trusterr.NotFoundf("voucher agent not found")
		}
		return trusterr.Internalf(err, "load voucher")
	}
	if voucher.ReputationScore < 60 {
		return trusterr.Forbiddenf("voucher's reputation score must be at least 60")
	}

	vouched, err := s.agents.GetByID(ctx, vouchedID)
	if err != nil {
		if err == repository.ErrNotFound {
			return trusterr.NotFoundf("vouched agent not found")
		}
		return trusterr.Internalf(err, "load vouched agent")
	}

	if _, err := s.vouches.Create(ctx, voucherID, vouchedID, weight); err != nil {
		if err == repository.ErrConflict {
			return trusterr.Conflictf("%s has already vouched for %s", voucherID, vouchedID)
		}
		return trusterr.Internalf(err, "create vouch")
	}

	return s.recomputeAndRecord(ctx, vouched, model.EventVouchReceived)
}

// AddStake records an increase in an agent's staked amount and recomputes
// its score.
func (s *AgentService) AddStake(ctx context.Context, agentID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return trusterr.BadRequestf("amount must be positive")
	}
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return trusterr.NotFoundf("agent not found")
		}
		return trusterr.Internalf(err, "load agent")
	}
	agent.StakeAmount += amount
	return s.recomputeAndRecord(ctx, agent, model.EventStakeAdded)
}

// recomputeAndRecord derives a fresh score for agent from its current
// persisted fields, writes it back, and appends a reputation event plus a
// hash-chained ledger entry.
func (s *AgentService) recomputeAndRecord(ctx context.Context, agent *model.Agent, eventType model.ReputationEventType) error {
	vouchCount, err := s.vouches.CountReceived(ctx, agent.ID)
	if err != nil {
		return trusterr.Internalf(err, "count vouches")
	}

	before := agent.ReputationScore
	after := reputation.Calculate(reputation.Input{
		IdentityVerified:  agent.IdentityVerified,
		StakeAmount:       agent.StakeAmount,
		VouchesReceived:   vouchCount,
		TotalActions:      agent.TotalActions,
		SuccessfulActions: agent.SuccessfulActions,
		FailedActions:     agent.FailedActions,
		CreatedAt:         agent.CreatedAt,
	})

	if err := s.agents.UpdateScore(ctx, agent.ID, after); err != nil {
		return trusterr.Internalf(err, "update score")
	}
	if _, err := s.events.Append(ctx, agent.ID, eventType, after-before); err != nil {
		return trusterr.Internalf(err, "append reputation event")
	}
	if s.ledger != nil {
		if _, err := s.ledger.Append(ctx, agent.ID.String(), ledger.EntryReputationEvent, "station", map[string]any{
			"eventType": eventType, "scoreChange": after - before,
		}); err != nil {
			return trusterr.Internalf(err, "append ledger entry")
		}
	}
	return nil
}
