package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

// DocumentIndexRepository maps a document id to the store that holds it.
type DocumentIndexRepository struct {
	db *sql.DB
}

func NewDocumentIndexRepository(db *sql.DB) *DocumentIndexRepository {
	return &DocumentIndexRepository{db: db}
}

func (r *DocumentIndexRepository) Put(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID, kind domain.Kind) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO document_index (id, tenant_id, kind) VALUES ($1, $2, $3)`,
		id, tenantID, kind,
	)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

func (r *DocumentIndexRepository) Lookup(ctx context.Context, tenantID, id uuid.UUID) (domain.Kind, error) {
	var kind domain.Kind
	err := r.db.QueryRowContext(ctx,
		`SELECT kind FROM document_index WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("Lookup: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("Lookup: %w", err)
	}
	return kind, nil
}

func (r *DocumentIndexRepository) Remove(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM document_index WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}
