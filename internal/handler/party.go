package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

type partyReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Party, error)
}

type PartyHandler struct {
	parties partyReader
}

func NewPartyHandler(parties partyReader) *PartyHandler {
	return &PartyHandler{parties: parties}
}

type partyDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	PartyType      string          `json:"partyType"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	party, err := h.parties.GetByID(r.Context(), p.TenantID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, partyDTO{
		ID:             party.ID,
		Name:           party.Name,
		Phone:          party.Phone,
		PartyType:      string(party.PartyType),
		OpeningBalance: party.OpeningBalance,
		CurrentBalance: party.CurrentBalance,
		CreatedAt:      party.CreatedAt,
	})
}
