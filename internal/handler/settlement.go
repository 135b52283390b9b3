package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/josh-kwaku/billing-ledger/internal/service/settlement"
)

type settlementService interface {
	Record(ctx context.Context, req settlement.PaymentRequest) (*domain.Receipt, error)
	GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*domain.Receipt, error)
}

type SettlementHandler struct {
	payments settlementService
}

func NewSettlementHandler(payments settlementService) *SettlementHandler {
	return &SettlementHandler{payments: payments}
}

type linkedDocumentRequest struct {
	ID            *uuid.UUID      `json:"id" validate:"required"`
	AmountSettled decimal.Decimal `json:"amountSettled"`
}

type paymentRequest struct {
	PartyID         *uuid.UUID              `json:"partyId" validate:"required"`
	ReceiptNo       string                  `json:"receiptNo"`
	Date            string                  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Amount          decimal.Decimal         `json:"amount"`
	PaymentMode     string                  `json:"paymentMode" validate:"required,oneof=Cash Cheque Online"`
	Remarks         string                  `json:"remarks"`
	LinkedDocuments []linkedDocumentRequest `json:"linkedDocuments" validate:"omitempty,dive"`
}

func (r paymentRequest) Validate() []FieldError {
	errs := validateStruct(r)
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	for i, l := range r.LinkedDocuments {
		if !l.AmountSettled.IsPositive() {
			errs = append(errs, FieldError{Field: fmt.Sprintf("linkedDocuments[%d].amountSettled", i), Message: "must be greater than 0"})
		}
	}
	return errs
}

type receiptDTO struct {
	ID              uuid.UUID           `json:"id"`
	Direction       string              `json:"direction"`
	ReceiptNo       string              `json:"receiptNo"`
	PartyID         uuid.UUID           `json:"partyId"`
	Date            string              `json:"date"`
	Amount          decimal.Decimal     `json:"amount"`
	PaymentMode     string              `json:"paymentMode"`
	Remarks         string              `json:"remarks"`
	LinkedDocuments []domain.Allocation `json:"linkedDocuments"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toReceiptDTO(rc *domain.Receipt) receiptDTO {
	allocs := rc.Allocations
	if allocs == nil {
		allocs = []domain.Allocation{}
	}
	return receiptDTO{
		ID:              rc.ID,
		Direction:       string(rc.Direction),
		ReceiptNo:       rc.ReceiptNo,
		PartyID:         rc.PartyID,
		Date:            rc.Date.Format(dateLayout),
		Amount:          rc.Amount,
		PaymentMode:     string(rc.Mode),
		Remarks:         rc.Remarks,
		LinkedDocuments: allocs,
		CreatedAt:       rc.CreatedAt,
	}
}

func (h *SettlementHandler) PaymentIn(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, domain.DirectionIn)
}

func (h *SettlementHandler) PaymentOut(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, domain.DirectionOut)
}

func (h *SettlementHandler) record(w http.ResponseWriter, r *http.Request, dir domain.Direction) {
	log := logging.FromContext(r.Context())

	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	date, _ := parseDate(req.Date)

	allocs := make([]domain.Allocation, len(req.LinkedDocuments))
	for i, l := range req.LinkedDocuments {
		allocs[i] = domain.Allocation{DocumentID: *l.ID, AmountSettled: l.AmountSettled}
	}

	rc, err := h.payments.Record(r.Context(), settlement.PaymentRequest{
		TenantID:    p.TenantID,
		Direction:   dir,
		PartyID:     *req.PartyID,
		ReceiptNo:   req.ReceiptNo,
		Date:        date,
		Amount:      req.Amount,
		Mode:        domain.PaymentMode(req.PaymentMode),
		Remarks:     req.Remarks,
		Allocations: allocs,
	})
	if err != nil {
		log.Warn("payment recording failed", "error", err, "direction", dir)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", rc.ID))
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(rc))
}

func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rc, err := h.payments.GetReceipt(r.Context(), p.TenantID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReceiptDTO(rc))
}
