package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerName string

const (
	LedgerStock   LedgerName = "stock"
	LedgerBalance LedgerName = "balance"
)

// Recorder kinds for movements that do not originate from a document.
const (
	RecorderAdjustment = "ADJUSTMENT"
	RecorderPaymentIn  = "PAYMENT_IN"
	RecorderPaymentOut = "PAYMENT_OUT"
)

// Movement is one applied ledger delta. Rows are append-only; a reversal is a
// new row pointing at the original through ReversalOf.
type Movement struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	RecorderID   uuid.UUID
	RecorderKind string
	Ledger       LedgerName
	TargetID     uuid.UUID
	Delta        decimal.Decimal
	ReversalOf   *uuid.UUID
	ReversedAt   *time.Time
	CreatedAt    time.Time
}
