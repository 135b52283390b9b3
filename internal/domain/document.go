package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindSaleOrder       Kind = "SO"
	KindProforma        Kind = "PROFORMA"
	KindEstimate        Kind = "ESTIMATE"
	KindSaleInvoice     Kind = "INVOICE"
	KindDeliveryChallan Kind = "DELIVERY_CHALLAN"
	KindCreditNote      Kind = "CREDIT_NOTE"
	KindPurchaseOrder   Kind = "PO"
	KindPurchaseBill    Kind = "BILL"
	KindDebitNote       Kind = "DEBIT_NOTE"
)

// Kinds lists every document variant in a stable order.
var Kinds = []Kind{
	KindSaleOrder, KindProforma, KindEstimate, KindSaleInvoice, KindDeliveryChallan,
	KindCreditNote, KindPurchaseOrder, KindPurchaseBill, KindDebitNote,
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("ParseKind: %q: %w", s, ErrInvalidDocumentType)
}

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusConverted Status = "CONVERTED"
)

type TaxType string

const (
	TaxTypeWithTax    TaxType = "withTax"
	TaxTypeWithoutTax TaxType = "withoutTax"
)

// settledTolerance is the amount at or below which a document counts as paid.
var settledTolerance = decimal.NewFromFloat(0.01)

type LineItem struct {
	ItemID   *uuid.UUID      `json:"itemId,omitempty"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty"`
	Price    UnitPrice       `json:"priceUnit"`
	Discount Discount        `json:"discount"`
	Tax      Tax             `json:"tax"`
	Amount   decimal.Decimal `json:"amount"`
}

type UnitPrice struct {
	Amount  decimal.Decimal `json:"amount"`
	TaxType TaxType         `json:"taxType"`
}

type Discount struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type Tax struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type Totals struct {
	SubTotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
	RoundOff      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// Payment holds the settlement state. Settled is the amount received (sale)
// or paid (purchase) when the document was written. Allocated is what payment
// receipts settled later; those receipts journal their own balance movement,
// so the document's balance effect never includes it.
type Payment struct {
	Type       string
	Settled    decimal.Decimal
	Allocated  decimal.Decimal
	BalanceDue decimal.Decimal
	IsPaid     bool
}

// Recompute derives BalanceDue and IsPaid from the grand total.
func (p *Payment) Recompute(grandTotal decimal.Decimal) {
	due := clampDue(grandTotal.Sub(p.Settled).Sub(p.Allocated))
	p.BalanceDue = due
	p.IsPaid = due.IsZero()
}

// Charged is the amount the document itself puts on the party balance:
// the grand total less what was settled on the document, receipts excluded.
func (p Payment) Charged(grandTotal decimal.Decimal) decimal.Decimal {
	return clampDue(grandTotal.Sub(p.Settled))
}

func clampDue(due decimal.Decimal) decimal.Decimal {
	if due.LessThanOrEqual(settledTolerance) {
		return decimal.Zero
	}
	return due
}

type PartyRef struct {
	ID    *uuid.UUID
	Name  string
	Phone string
}

// DocRef is a weak reference to another document. The target may have been
// deleted since the reference was recorded.
type DocRef struct {
	ID   uuid.UUID
	Kind Kind
}

type Linkage struct {
	ConvertedFrom      *DocRef
	ConvertedTo        *DocRef
	IsReturn           bool
	OriginalDocumentID *uuid.UUID
}

type Document struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Kind          Kind
	Number        string
	Date          time.Time
	DueDate       *time.Time
	Party         PartyRef
	StateOfSupply string
	Description   string
	Lines         []LineItem
	Totals        Totals
	Payment       Payment
	Status        Status
	Linkage       Linkage

	// StockAppliedUpstream is set when a predecessor already moved stock for
	// these lines, so the document carries only its balance effect.
	StockAppliedUpstream bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Document) Ref() DocRef {
	return DocRef{ID: d.ID, Kind: d.Kind}
}

func (d *Document) Rule() (Rule, error) {
	r, ok := RuleFor(d.Kind, d.Linkage.IsReturn)
	if !ok {
		return Rule{}, fmt.Errorf("Rule: %s return=%t: %w", d.Kind, d.Linkage.IsReturn, ErrInvalidDocumentType)
	}
	return r, nil
}

// MarkConverted moves an OPEN document to CONVERTED and records its successor.
func (d *Document) MarkConverted(to DocRef, now time.Time) error {
	if d.Status != StatusOpen {
		return fmt.Errorf("MarkConverted: %s %s: %w", d.Kind, d.Number, ErrAlreadyConverted)
	}
	d.Status = StatusConverted
	d.Linkage.ConvertedTo = &to
	d.UpdatedAt = now
	return nil
}

// Settle applies a payment allocation against the outstanding balance.
func (d *Document) Settle(amount decimal.Decimal, now time.Time) {
	d.Payment.Allocated = d.Payment.Allocated.Add(amount)
	d.Payment.Recompute(d.Totals.GrandTotal)
	d.UpdatedAt = now
}

// HasAllocations reports whether a payment receipt settled part of d.
func (d *Document) HasAllocations() bool {
	return d.Payment.Allocated.IsPositive()
}

func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}
