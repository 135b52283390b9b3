package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

type movementLister interface {
	ListByRecorder(ctx context.Context, tenantID, recorderID uuid.UUID) ([]domain.Movement, error)
}

// MovementHandler exposes the ledger journal of one recorder: a document, a
// stock adjustment or a payment receipt. Movements outlive deleted documents,
// so the trail of a deleted invoice stays readable.
type MovementHandler struct {
	movements movementLister
}

func NewMovementHandler(movements movementLister) *MovementHandler {
	return &MovementHandler{movements: movements}
}

type movementDTO struct {
	ID           uuid.UUID       `json:"id"`
	RecorderKind string          `json:"recorderKind"`
	Ledger       string          `json:"ledger"`
	TargetID     uuid.UUID       `json:"targetId"`
	Delta        decimal.Decimal `json:"delta"`
	ReversalOf   *uuid.UUID      `json:"reversalOf"`
	Reversed     bool            `json:"reversed"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	recorderID, err := uuid.Parse(r.PathValue("recorderId"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	ms, err := h.movements.ListByRecorder(r.Context(), p.TenantID, recorderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	out := make([]movementDTO, len(ms))
	for i, m := range ms {
		out[i] = movementDTO{
			ID:           m.ID,
			RecorderKind: m.RecorderKind,
			Ledger:       string(m.Ledger),
			TargetID:     m.TargetID,
			Delta:        m.Delta,
			ReversalOf:   m.ReversalOf,
			Reversed:     m.ReversedAt != nil,
			CreatedAt:    m.CreatedAt,
		}
	}
	RespondSuccess(w, http.StatusOK, out)
}
