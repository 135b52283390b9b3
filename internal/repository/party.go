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

const partyColumns = `id, tenant_id, name, phone, party_type, opening_balance, current_balance, created_at`

// PartyRepository is the party directory and the balance ledger.
type PartyRepository struct {
	db *sql.DB
}

func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Party, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	)
	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// IncrementBalance adds delta to the party's running balance in one
// statement and returns the new balance.
func (r *PartyRepository) IncrementBalance(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE parties SET current_balance = current_balance + $1
		WHERE id = $2 AND tenant_id = $3
		RETURNING current_balance`,
		delta, id, tenantID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("IncrementBalance: %w", domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("IncrementBalance: %w", err)
	}
	return balance, nil
}

// ListDrift returns parties whose current balance differs from the opening
// balance plus every journaled movement.
func (r *PartyRepository) ListDrift(ctx context.Context) ([]LedgerDrift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.tenant_id, p.current_balance, p.opening_balance + COALESCE(SUM(m.delta), 0)
		FROM parties p
		LEFT JOIN ledger_movements m ON m.ledger = 'balance' AND m.target_id = p.id
		GROUP BY p.id
		HAVING p.current_balance <> p.opening_balance + COALESCE(SUM(m.delta), 0)`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDrift: %w", err)
	}
	defer rows.Close()
	return scanDrift(rows, domain.LedgerBalance)
}

func scanParty(s scanner) (*domain.Party, error) {
	var p domain.Party
	err := s.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Phone, &p.PartyType,
		&p.OpeningBalance, &p.CurrentBalance, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
