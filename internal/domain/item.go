package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityPlaces is the precision stock quantities are stored with.
const QuantityPlaces = 3

// ValidQuantity reports whether q is positive and fits QuantityPlaces.
func ValidQuantity(q decimal.Decimal) bool {
	return q.IsPositive() && q.Equal(q.Truncate(QuantityPlaces))
}

type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindService ItemKind = "service"
)

// CatalogEntry is what the ledger needs to know about a line item reference.
type CatalogEntry struct {
	ItemID        uuid.UUID
	Kind          ItemKind
	StockRecordID *uuid.UUID
}

func (c CatalogEntry) TracksStock() bool {
	return c.Kind == ItemKindProduct && c.StockRecordID != nil
}

type StockRecord struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	ItemID             uuid.UUID
	ItemName           string
	OpeningQuantity    decimal.Decimal
	CurrentQuantity    decimal.Decimal
	MinStockToMaintain decimal.Decimal
	UpdatedAt          time.Time
}
