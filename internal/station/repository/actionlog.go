package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// ActionLogRepository appends and lists immutable action-log entries
// (spec.md §3, §4.8). The ledger package independently hash-chains the same
// events for tamper-evidence; this repository is the queryable store.
type ActionLogRepository struct {
	db *pgxpool.Pool
}

// NewActionLogRepository creates an ActionLogRepository.
func NewActionLogRepository(db *pgxpool.Pool) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Append inserts a new action-log entry.
func (r *ActionLogRepository) Append(ctx context.Context, agentID uuid.UUID, actionType string, decision model.Decision, reason string, metadata map[string]any) (*model.ActionLogEntry, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	entry := &model.ActionLogEntry{
		ID:         uuid.New(),
		AgentID:    agentID,
		ActionType: actionType,
		Decision:   decision,
		Reason:     reason,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO action_log (id, agent_id, action_type, decision, reason, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.AgentID, entry.ActionType, entry.Decision, entry.Reason, metaJSON, entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByAgent returns an agent's most recent action-log entries, newest
// first, capped at limit.
func (r *ActionLogRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]*model.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, agent_id, action_type, decision, reason, metadata, created_at
		 FROM action_log WHERE agent_id = $1 ORDER BY created_at DESC LIMIT $2`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.ActionLogEntry
	for rows.Next() {
		e, err := scanActionLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanActionLogEntry(rows pgx.Rows) (*model.ActionLogEntry, error) {
	var e model.ActionLogEntry
	var metaRaw []byte
	if err := rows.Scan(&e.ID, &e.AgentID, &e.ActionType, &e.Decision, &e.Reason, &metaRaw, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &e, nil
}
