package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next atomically advances the (tenant, series) counter and returns the new
// value. The first call for a series returns 1.
func (r *SequenceRepository) Next(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, series string) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO document_sequences (tenant_id, series, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, series)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`,
		tenantID, series,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("Next: %w", err)
	}
	return n, nil
}

func (r *SequenceRepository) Current(ctx context.Context, tenantID uuid.UUID, series string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_number FROM document_sequences WHERE tenant_id = $1 AND series = $2`,
		tenantID, series,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Current: %w", err)
	}
	return n, nil
}
