package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// DeveloperRepository provides CRUD operations for developers against
// PostgreSQL, grounded on internal/registry/repository/agent.go's
// scanOne/scan pattern.
type DeveloperRepository struct {
	db *pgxpool.Pool
}

// NewDeveloperRepository creates a DeveloperRepository.
func NewDeveloperRepository(db *pgxpool.Pool) *DeveloperRepository {
	return &DeveloperRepository{db: db}
}

// HashAPIKey returns the SHA-256 hex digest stored for an API key, following
// the digest-only-at-rest convention used for API key storage in the
// retrieval pack (never persist the raw key).
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns a fresh random raw API key and its hash. The raw
// value is returned to the caller exactly once, at creation time.
func GenerateAPIKey() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}
	raw = "atk_" + hex.EncodeToString(buf)
	return raw, HashAPIKey(raw), nil
}

// Create registers a new developer with a freshly generated API key,
// returning the raw key (shown to the caller only this once).
func (r *DeveloperRepository) Create(ctx context.Context, name string) (*model.Developer, string, error) {
	raw, hash, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	dev := &model.Developer{
		ID:         uuid.New(),
		Name:       name,
		APIKeyHash: hash,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO developers (id, name, api_key_hash, created_at) VALUES ($1, $2, $3, $4)`,
		dev.ID, dev.Name, dev.APIKeyHash, dev.CreatedAt,
	)
	if err != nil {
		return nil, "", err
	}
	return dev, raw, nil
}

// GetByAPIKey looks up a developer by the raw API key presented on a
// request, hashing it before querying so the database never sees or stores
// the raw value.
func (r *DeveloperRepository) GetByAPIKey(ctx context.Context, rawKey string) (*model.Developer, error) {
	hash := HashAPIKey(rawKey)
	row := r.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM developers WHERE api_key_hash = $1`, hash)
	return scanDeveloper(row)
}

// GetByID looks up a developer by internal UUID.
func (r *DeveloperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Developer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM developers WHERE id = $1`, id)
	return scanDeveloper(row)
}

func scanDeveloper(row pgx.Row) (*model.Developer, error) {
	var d model.Developer
	if err := row.Scan(&d.ID, &d.Name, &d.APIKeyHash, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
