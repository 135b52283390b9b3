package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

const receiptColumns = `id, tenant_id, direction, receipt_no, party_id, receipt_date, amount,
	payment_mode, remarks, allocations, created_at`

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(ctx context.Context, tx *sql.Tx, rc *domain.Receipt) error {
	allocations, err := json.Marshal(rc.Allocations)
	if err != nil {
		return fmt.Errorf("Create: encode allocations: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rc.ID, rc.TenantID, rc.Direction, rc.ReceiptNo, rc.PartyID, rc.Date, rc.Amount,
		rc.Mode, rc.Remarks, allocations, rc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Receipt, error) {
	var (
		rc          domain.Receipt
		allocations []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM payment_receipts WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&rc.ID, &rc.TenantID, &rc.Direction, &rc.ReceiptNo, &rc.PartyID, &rc.Date, &rc.Amount,
		&rc.Mode, &rc.Remarks, &allocations, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	if err := json.Unmarshal(allocations, &rc.Allocations); err != nil {
		return nil, fmt.Errorf("GetByID: decode allocations: %w", err)
	}
	return &rc, nil
}
