// Package inventory adjusts and reports stock levels outside of documents.
package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/shopspring/decimal"
)

type AdjustmentType string

const (
	AdjustAdd    AdjustmentType = "ADD"
	AdjustReduce AdjustmentType = "REDUCE"
)

type catalog interface {
	Resolve(ctx context.Context, tx *sql.Tx, tenantID, itemID uuid.UUID) (*domain.CatalogEntry, error)
	GetByItemID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.StockRecord, error)
}

type stockAdjuster interface {
	AdjustStock(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID, recorderKind string, stockRecordID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type txRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Service struct {
	catalog catalog
	ledger  stockAdjuster
	db      txRunner
}

func NewService(catalog catalog, ledger stockAdjuster, db txRunner) *Service {
	return &Service{catalog: catalog, ledger: ledger, db: db}
}

type AdjustRequest struct {
	TenantID uuid.UUID
	ItemID   uuid.UUID
	Quantity decimal.Decimal
	Type     AdjustmentType
	Remarks  string
}

type Adjustment struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	NewStock decimal.Decimal
}

// Adjust moves the stock of a product by a manual correction. Services do not
// track stock and are rejected.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*Adjustment, error) {
	log := logging.FromContext(ctx)

	if !domain.ValidQuantity(req.Quantity) {
		return nil, fmt.Errorf("Adjust: quantity %s: %w", req.Quantity, domain.ErrInvalidQuantity)
	}
	var delta decimal.Decimal
	switch req.Type {
	case AdjustAdd:
		delta = req.Quantity
	case AdjustReduce:
		delta = req.Quantity.Neg()
	default:
		return nil, fmt.Errorf("Adjust: type %q: %w", req.Type, domain.ErrInvalidRequest)
	}

	adj := &Adjustment{ID: uuid.New(), ItemID: req.ItemID}
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		entry, err := s.catalog.Resolve(ctx, tx, req.TenantID, req.ItemID)
		if err != nil {
			return err
		}
		if !entry.TracksStock() {
			return fmt.Errorf("item %s: %w", req.ItemID, domain.ErrNotStockItem)
		}
		adj.NewStock, err = s.ledger.AdjustStock(ctx, tx, req.TenantID, adj.ID, domain.RecorderAdjustment, *entry.StockRecordID, delta)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	log.Info("stock adjusted",
		"adjustment_id", adj.ID,
		"item_id", req.ItemID,
		"delta", delta,
		"new_stock", adj.NewStock,
		"remarks", req.Remarks,
	)

	return adj, nil
}

func (s *Service) Stock(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.StockRecord, error) {
	rec, err := s.catalog.GetByItemID(ctx, tenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("Stock: %w", err)
	}
	return rec, nil
}
