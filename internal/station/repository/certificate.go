package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// CertificateRepository persists issued-certificate records, keyed by jti,
// for the station's /certificates/verify path and revocation bookkeeping.
type CertificateRepository struct {
	db *pgxpool.Pool
}

// NewCertificateRepository creates a CertificateRepository.
func NewCertificateRepository(db *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create persists a freshly issued certificate record.
func (r *CertificateRepository) Create(ctx context.Context, rec *model.CertificateRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO certificates (jti, agent_id, score, scope, issued_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.JTI, rec.AgentID, rec.Score, rec.Scope, rec.IssuedAt, rec.ExpiresAt, rec.Revoked,
	)
	return err
}

// GetByJTI retrieves a certificate record by its jti.
func (r *CertificateRepository) GetByJTI(ctx context.Context, jti string) (*model.CertificateRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT jti, agent_id, score, scope, issued_at, expires_at, revoked FROM certificates WHERE jti = $1`, jti)
	return scanCertificate(row)
}

// Revoke sets revoked=true for jti. Idempotent; never reverts to false.
func (r *CertificateRepository) Revoke(ctx context.Context, jti string) error {
	tag, err := r.db.Exec(ctx, `UPDATE certificates SET revoked = true WHERE jti = $1`, jti)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCertificate(row pgx.Row) (*model.CertificateRecord, error) {
	var c model.CertificateRecord
	err := row.Scan(&c.JTI, &c.AgentID, &c.Score, &c.Scope, &c.IssuedAt, &c.ExpiresAt, &c.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
