package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// ReputationEventRepository appends and lists the immutable score-change
// audit trail.
type ReputationEventRepository struct {
	db *pgxpool.Pool
}

// NewReputationEventRepository creates a ReputationEventRepository.
func NewReputationEventRepository(db *pgxpool.Pool) *ReputationEventRepository {
	return &ReputationEventRepository{db: db}
}

// Append records a new reputation event.
func (r *ReputationEventRepository) Append(ctx context.Context, agentID uuid.UUID, eventType model.ReputationEventType, scoreChange int) (*model.ReputationEvent, error) {
	event := &model.ReputationEvent{
		ID:          uuid.New(),
		AgentID:     agentID,
		EventType:   eventType,
		ScoreChange: scoreChange,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO reputation_events (id, agent_id, event_type, score_change, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.AgentID, event.EventType, event.ScoreChange, event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListByAgent returns an agent's reputation events, oldest first.
func (r *ReputationEventRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*model.ReputationEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, agent_id, event_type, score_change, created_at
		 FROM reputation_events WHERE agent_id = $1 ORDER BY created_at ASC`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.ReputationEvent
	for rows.Next() {
		e, err := scanReputationEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanReputationEvent(rows pgx.Rows) (*model.ReputationEvent, error) {
	var e model.ReputationEvent
	if err := rows.Scan(&e.ID, &e.AgentID, &e.EventType, &e.ScoreChange, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
