package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeCheque PaymentMode = "Cheque"
	PaymentModeOnline PaymentMode = "Online"
)

func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeOnline:
		return true
	}
	return false
}

type Allocation struct {
	DocumentID    uuid.UUID       `json:"documentId"`
	AmountSettled decimal.Decimal `json:"amountSettled"`
}

// Receipt records money received from (in) or paid to (out) a party.
type Receipt struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Direction   Direction
	ReceiptNo   string
	PartyID     uuid.UUID
	Date        time.Time
	Amount      decimal.Decimal
	Mode        PaymentMode
	Remarks     string
	Allocations []Allocation
	CreatedAt   time.Time
}

// SettlesKind is the document variant a receipt direction may settle.
func (d Direction) SettlesKind() Kind {
	if d == DirectionOut {
		return KindPurchaseBill
	}
	return KindSaleInvoice
}

func (d Direction) RecorderKind() string {
	if d == DirectionOut {
		return RecorderPaymentOut
	}
	return RecorderPaymentIn
}

func (d Direction) Prefix() string {
	if d == DirectionOut {
		return "PAYOUT"
	}
	return "PAYIN"
}
