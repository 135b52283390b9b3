package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// Party is a counterparty. Its type is informational; balance signs come
// from the document rule table.
type Party struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Phone          string
	PartyType      PartyType
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
}
