package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// AgentRepository provides CRUD operations for agents against PostgreSQL.
type AgentRepository struct {
	db *pgxpool.Pool
}

// NewAgentRepository creates an AgentRepository.
func NewAgentRepository(db *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: db}
}

// Create inserts a new agent owned by developerID, identified by externalID.
func (r *AgentRepository) Create(ctx context.Context, developerID uuid.UUID, externalID string, identityVerified bool, stakeAmount float64) (*model.Agent, error) {
	a := &model.Agent{
		ID:               uuid.New(),
		DeveloperID:      developerID,
		ExternalID:       externalID,
		IdentityVerified: identityVerified,
		StakeAmount:      stakeAmount,
		Status:           model.AgentStatusActive,
		CreatedAt:        time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO agents (
			id, developer_id, external_id, identity_verified, stake_amount,
			total_actions, successful_actions, failed_actions, status,
			reputation_score, created_at
		) VALUES ($1, $2, $3, $4, $5, 0, 0, 0, $6, $7, $8)`,
		a.ID, a.DeveloperID, a.ExternalID, a.IdentityVerified, a.StakeAmount,
		a.Status, a.ReputationScore, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an agent by internal UUID.
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	return r.scanOne(ctx,
		`SELECT id, developer_id, external_id, identity_verified, stake_amount,
		        total_actions, successful_actions, failed_actions, status,
		        reputation_score, created_at
		 FROM agents WHERE id = $1`, id)
}

// GetByExternalID retrieves an agent by (developerId, externalId).
func (r *AgentRepository) GetByExternalID(ctx context.Context, developerID uuid.UUID, externalID string) (*model.Agent, error) {
	return r.scanOne(ctx,
		`SELECT id, developer_id, external_id, identity_verified, stake_amount,
		        total_actions, successful_actions, failed_actions, status,
		        reputation_score, created_at
		 FROM agents WHERE developer_id = $1 AND external_id = $2`, developerID, externalID)
}

// ListByDeveloper returns every agent owned by developerID, newest first.
func (r *AgentRepository) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]*model.Agent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, developer_id, external_id, identity_verified, stake_amount,
		        total_actions, successful_actions, failed_actions, status,
		        reputation_score, created_at
		 FROM agents WHERE developer_id = $1 ORDER BY created_at DESC`, developerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// RecordOutcome increments the total/successful/failed action counters for
// one outcome. The score is recomputed and persisted separately, once per
// batch, via UpdateScore.
func (r *AgentRepository) RecordOutcome(ctx context.Context, id uuid.UUID, success bool) error {
	var query string
	if success {
		query = `UPDATE agents SET total_actions = total_actions + 1, successful_actions = successful_actions + 1 WHERE id = $1`
	} else {
		query = `UPDATE agents SET total_actions = total_actions + 1, failed_actions = failed_actions + 1 WHERE id = $1`
	}
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateScore persists a recomputed reputation score without touching the
// action counters (used after a vouch or stake change).
func (r *AgentRepository) UpdateScore(ctx context.Context, id uuid.UUID, newScore int) error {
	tag, err := r.db.Exec(ctx, `UPDATE agents SET reputation_score = $2 WHERE id = $1`, id, newScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AgentRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Agent, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanAgent(rows)
}

func scanAgent(rows pgx.Rows) (*model.Agent, error) {
	var a model.Agent
	err := rows.Scan(
		&a.ID, &a.DeveloperID, &a.ExternalID, &a.IdentityVerified, &a.StakeAmount,
		&a.TotalActions, &a.SuccessfulActions, &a.FailedActions, &a.Status,
		&a.ReputationScore, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
