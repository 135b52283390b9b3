package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const movementColumns = `id, tenant_id, recorder_id, recorder_kind, ledger, target_id, delta,
	reversal_of, reversed_at, created_at`

// LedgerDrift is a counter whose stored value disagrees with its journal.
type LedgerDrift struct {
	Ledger   domain.LedgerName
	TargetID uuid.UUID
	TenantID uuid.UUID
	Current  decimal.Decimal
	Expected decimal.Decimal
}

type MovementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Create(ctx context.Context, tx *sql.Tx, m *domain.Movement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.TenantID, m.RecorderID, m.RecorderKind, m.Ledger, m.TargetID, m.Delta,
		m.ReversalOf, m.ReversedAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ListLiveForUpdate locks and returns the movements of a recorder that have
// not been reversed yet, excluding reversal rows themselves.
func (r *MovementRepository) ListLiveForUpdate(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID) ([]domain.Movement, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM ledger_movements
		WHERE tenant_id = $1 AND recorder_id = $2 AND reversal_of IS NULL AND reversed_at IS NULL
		ORDER BY created_at, id
		FOR UPDATE`,
		tenantID, recorderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListLiveForUpdate: %w", err)
	}
	defer rows.Close()

	var out []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("ListLiveForUpdate: scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLiveForUpdate: rows: %w", err)
	}
	return out, nil
}

func (r *MovementRepository) MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_movements SET reversed_at = $1 WHERE id = $2 AND reversed_at IS NULL`, at, id,
	)
	if err != nil {
		return fmt.Errorf("MarkReversed: %w", err)
	}
	return requireOneRow(res, "MarkReversed")
}

func (r *MovementRepository) ListByRecorder(ctx context.Context, tenantID, recorderID uuid.UUID) ([]domain.Movement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM ledger_movements
		WHERE tenant_id = $1 AND recorder_id = $2 ORDER BY created_at, id`,
		tenantID, recorderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByRecorder: %w", err)
	}
	defer rows.Close()

	var out []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByRecorder: scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRecorder: rows: %w", err)
	}
	return out, nil
}

func scanMovement(s scanner) (*domain.Movement, error) {
	var m domain.Movement
	err := s.Scan(
		&m.ID, &m.TenantID, &m.RecorderID, &m.RecorderKind, &m.Ledger, &m.TargetID, &m.Delta,
		&m.ReversalOf, &m.ReversedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanDrift(rows *sql.Rows, ledger domain.LedgerName) ([]LedgerDrift, error) {
	var out []LedgerDrift
	for rows.Next() {
		d := LedgerDrift{Ledger: ledger}
		if err := rows.Scan(&d.TargetID, &d.TenantID, &d.Current, &d.Expected); err != nil {
			return nil, fmt.Errorf("scanDrift: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanDrift: rows: %w", err)
	}
	return out, nil
}
