package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// StockRepository is the item catalog lookup and the stock ledger.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) Resolve(ctx context.Context, tx *sql.Tx, tenantID, itemID uuid.UUID) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	err := tx.QueryRowContext(ctx,
		`SELECT i.id, i.item_kind, s.id
		FROM items i
		LEFT JOIN stock_records s ON s.item_id = i.id
		WHERE i.id = $1 AND i.tenant_id = $2`,
		itemID, tenantID,
	).Scan(&e.ItemID, &e.Kind, &e.StockRecordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Resolve: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	return &e, nil
}

// IncrementQuantity adds delta to the on-hand quantity in one statement and
// returns the new quantity.
func (r *StockRepository) IncrementQuantity(ctx context.Context, tx *sql.Tx, tenantID, stockRecordID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE stock_records SET current_quantity = current_quantity + $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING current_quantity`,
		delta, stockRecordID, tenantID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("IncrementQuantity: %w", domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("IncrementQuantity: %w", err)
	}
	return qty, nil
}

func (r *StockRepository) GetByItemID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.StockRecord, error) {
	var s domain.StockRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.tenant_id, s.item_id, i.name, s.opening_quantity, s.current_quantity,
			s.min_stock_to_maintain, s.updated_at
		FROM stock_records s
		JOIN items i ON i.id = s.item_id
		WHERE s.item_id = $1 AND s.tenant_id = $2`,
		itemID, tenantID,
	).Scan(&s.ID, &s.TenantID, &s.ItemID, &s.ItemName, &s.OpeningQuantity, &s.CurrentQuantity,
		&s.MinStockToMaintain, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByItemID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByItemID: %w", err)
	}
	return &s, nil
}

// ListDrift returns stock records whose quantity differs from the opening
// quantity plus every journaled movement.
func (r *StockRepository) ListDrift(ctx context.Context) ([]LedgerDrift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.tenant_id, s.current_quantity, s.opening_quantity + COALESCE(SUM(m.delta), 0)
		FROM stock_records s
		LEFT JOIN ledger_movements m ON m.ledger = 'stock' AND m.target_id = s.id
		GROUP BY s.id
		HAVING s.current_quantity <> s.opening_quantity + COALESCE(SUM(m.delta), 0)`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDrift: %w", err)
	}
	defer rows.Close()
	return scanDrift(rows, domain.LedgerStock)
}
