package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Retr0981/agenttrust/internal/station/model"
)

// VouchRepository provides CRUD for directed voucher -> vouched edges.
type VouchRepository struct {
	db *pgxpool.Pool
}

// NewVouchRepository creates a VouchRepository.
func NewVouchRepository(db *pgxpool.Pool) *VouchRepository {
	return &VouchRepository{db: db}
}

// Create records a new vouch. Returns ErrConflict if the ordered pair
// already has an edge.
func (r *VouchRepository) Create(ctx context.Context, voucherID, vouchedID uuid.UUID, weight int) (*model.Vouch, error) {
	v := &model.Vouch{
		ID:        uuid.New(),
		VoucherID: voucherID,
		VouchedID: vouchedID,
		Weight:    weight,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO vouches (id, voucher_id, vouched_id, weight, created_at) VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.VoucherID, v.VouchedID, v.Weight, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return v, nil
}

// CountReceived returns how many vouches vouchedID has received, used as a
// direct input to the reputation calculator.
func (r *VouchRepository) CountReceived(ctx context.Context, vouchedID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vouches WHERE vouched_id = $1`, vouchedID).Scan(&n)
	return n, err
}

// ListReceived returns every vouch received by vouchedID.
func (r *VouchRepository) ListReceived(ctx context.Context, vouchedID uuid.UUID) ([]*model.Vouch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, voucher_id, vouched_id, weight, created_at FROM vouches WHERE vouched_id = $1 ORDER BY created_at`,
		vouchedID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouches []*model.Vouch
	for rows.Next() {
		v, err := scanVouch(rows)
		if err != nil {
			return nil, err
		}
		vouches = append(vouches, v)
	}
	return vouches, rows.Err()
}

// Delete removes a vouch edge.
func (r *VouchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vouches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVouch(rows pgx.Rows) (*model.Vouch, error) {
	var v model.Vouch
	if err := rows.Scan(&v.ID, &v.VoucherID, &v.VouchedID, &v.Weight, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
