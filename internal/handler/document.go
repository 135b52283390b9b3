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
	"github.com/josh-kwaku/billing-ledger/internal/service/document"
)

type documentService interface {
	Create(ctx context.Context, req document.CreateRequest) (*domain.Document, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, req document.UpdateRequest) (*domain.Document, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Convert(ctx context.Context, req document.ConvertRequest) (*domain.Document, *domain.Document, error)
	Return(ctx context.Context, req document.ReturnRequest) (*domain.Document, error)
}

type DocumentHandler struct {
	documents documentService
}

func NewDocumentHandler(documents documentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type lineRequest struct {
	ItemID   *uuid.UUID      `json:"itemId"`
	Name     string          `json:"name" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Price    struct {
		Amount  decimal.Decimal `json:"amount"`
		TaxType string          `json:"taxType" validate:"omitempty,oneof=withTax withoutTax"`
	} `json:"priceUnit"`
	Discount struct {
		Percent decimal.Decimal `json:"percent"`
		Amount  decimal.Decimal `json:"amount"`
	} `json:"discount"`
	Tax struct {
		Rate decimal.Decimal `json:"rate"`
	} `json:"tax"`
}

func (l lineRequest) toDomain() domain.LineItem {
	taxType := domain.TaxType(l.Price.TaxType)
	if taxType == "" {
		taxType = domain.TaxTypeWithoutTax
	}
	return domain.LineItem{
		ItemID:   l.ItemID,
		Name:     l.Name,
		Quantity: l.Quantity,
		Unit:     l.Unit,
		Price:    domain.UnitPrice{Amount: l.Price.Amount, TaxType: taxType},
		Discount: domain.Discount{Percent: l.Discount.Percent, Amount: l.Discount.Amount},
		Tax:      domain.Tax{Rate: l.Tax.Rate},
	}
}

func toDomainLines(lines []lineRequest) []domain.LineItem {
	out := make([]domain.LineItem, len(lines))
	for i, l := range lines {
		out[i] = l.toDomain()
	}
	return out
}

// quantityErrors reports non-positive quantities, which the validate tags
// cannot express for decimals.
func quantityErrors(lines []lineRequest) []FieldError {
	var errs []FieldError
	for i, l := range lines {
		if !l.Quantity.IsPositive() {
			errs = append(errs, FieldError{Field: fmt.Sprintf("lineItems[%d].quantity", i), Message: "must be greater than 0"})
		}
	}
	return errs
}

type documentBody struct {
	Number        string          `json:"number"`
	Date          string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string          `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	PartyID       *uuid.UUID      `json:"partyId"`
	PartyName     string          `json:"partyName"`
	Phone         string          `json:"phone"`
	StateOfSupply string          `json:"stateOfSupply"`
	Description   string          `json:"description"`
	Lines         []lineRequest   `json:"lineItems" validate:"required,min=1,dive"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	PaymentType   string          `json:"paymentType"`
	AmountSettled decimal.Decimal `json:"amountSettled"`
}

func (b documentBody) Validate() []FieldError {
	errs := validateStruct(b)
	errs = append(errs, quantityErrors(b.Lines)...)
	if b.AmountSettled.IsNegative() {
		errs = append(errs, FieldError{Field: "amountSettled", Message: "must not be negative"})
	}
	return errs
}

// draft converts the body after Validate has accepted it.
func (b documentBody) draft() document.Draft {
	date, _ := parseDate(b.Date)
	due, _ := parseOptionalDate(b.DueDate)
	return document.Draft{
		Number:        b.Number,
		Date:          date,
		DueDate:       due,
		PartyID:       b.PartyID,
		PartyName:     b.PartyName,
		PartyPhone:    b.Phone,
		StateOfSupply: b.StateOfSupply,
		Description:   b.Description,
		Lines:         toDomainLines(b.Lines),
		RoundOff:      b.RoundOff,
		PaymentType:   b.PaymentType,
		Settled:       b.AmountSettled,
	}
}

type createDocumentRequest struct {
	DocumentType       string     `json:"documentType"`
	IsReturn           bool       `json:"isReturn"`
	OriginalDocumentID *uuid.UUID `json:"originalDocumentId"`
	ConvertedFromID    *uuid.UUID `json:"convertedFromId"`
	documentBody
}

func (r createDocumentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.DocumentType == "" {
		errs = append(errs, FieldError{Field: "documentType", Message: "required"})
	}
	return append(errs, r.documentBody.Validate()...)
}

type convertRequest struct {
	Number string `json:"number"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type returnRequest struct {
	Number        string          `json:"number"`
	Date          string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Lines         []lineRequest   `json:"lineItems" validate:"omitempty,dive"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	AmountSettled decimal.Decimal `json:"amountSettled"`
}

func (r returnRequest) Validate() []FieldError {
	errs := validateStruct(r)
	errs = append(errs, quantityErrors(r.Lines)...)
	if r.AmountSettled.IsNegative() {
		errs = append(errs, FieldError{Field: "amountSettled", Message: "must not be negative"})
	}
	return errs
}

type docRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"documentType"`
}

func toDocRefDTO(ref *domain.DocRef) *docRefDTO {
	if ref == nil {
		return nil
	}
	return &docRefDTO{ID: ref.ID, Type: string(ref.Kind)}
}

type totalsDTO struct {
	SubTotal      decimal.Decimal `json:"subTotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

type paymentStateDTO struct {
	PaymentType     string          `json:"paymentType"`
	AmountSettled   decimal.Decimal `json:"amountSettled"`
	AmountAllocated decimal.Decimal `json:"amountAllocated"`
	BalanceDue      decimal.Decimal `json:"balanceDue"`
	IsPaid          bool            `json:"isPaid"`
}

type documentDTO struct {
	ID                   uuid.UUID         `json:"id"`
	DocumentType         string            `json:"documentType"`
	Number               string            `json:"number"`
	Date                 string            `json:"date"`
	DueDate              *string           `json:"dueDate"`
	PartyID              *uuid.UUID        `json:"partyId"`
	PartyName            string            `json:"partyName"`
	Phone                string            `json:"phone"`
	StateOfSupply        string            `json:"stateOfSupply"`
	Description          string            `json:"description"`
	Lines                []domain.LineItem `json:"lineItems"`
	Totals               totalsDTO         `json:"totals"`
	Payment              paymentStateDTO   `json:"payment"`
	Status               string            `json:"status"`
	ConvertedFrom        *docRefDTO        `json:"convertedFrom"`
	ConvertedTo          *docRefDTO        `json:"convertedTo"`
	IsReturn             bool              `json:"isReturn"`
	OriginalDocumentID   *uuid.UUID        `json:"originalDocumentId"`
	StockAppliedUpstream bool              `json:"stockAppliedUpstream"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

func toDocumentDTO(d *domain.Document) documentDTO {
	dto := documentDTO{
		ID:            d.ID,
		DocumentType:  string(d.Kind),
		Number:        d.Number,
		Date:          d.Date.Format(dateLayout),
		PartyID:       d.Party.ID,
		PartyName:     d.Party.Name,
		Phone:         d.Party.Phone,
		StateOfSupply: d.StateOfSupply,
		Description:   d.Description,
		Lines:         d.Lines,
		Totals: totalsDTO{
			SubTotal:      d.Totals.SubTotal,
			TotalDiscount: d.Totals.TotalDiscount,
			TotalTax:      d.Totals.TotalTax,
			RoundOff:      d.Totals.RoundOff,
			GrandTotal:    d.Totals.GrandTotal,
		},
		Payment: paymentStateDTO{
			PaymentType:     d.Payment.Type,
			AmountSettled:   d.Payment.Settled,
			AmountAllocated: d.Payment.Allocated,
			BalanceDue:      d.Payment.BalanceDue,
			IsPaid:          d.Payment.IsPaid,
		},
		Status:               string(d.Status),
		ConvertedFrom:        toDocRefDTO(d.Linkage.ConvertedFrom),
		ConvertedTo:          toDocRefDTO(d.Linkage.ConvertedTo),
		IsReturn:             d.Linkage.IsReturn,
		OriginalDocumentID:   d.Linkage.OriginalDocumentID,
		StockAppliedUpstream: d.StockAppliedUpstream,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.DueDate != nil {
		s := d.DueDate.Format(dateLayout)
		dto.DueDate = &s
	}
	if dto.Lines == nil {
		dto.Lines = []domain.LineItem{}
	}
	return dto
}

func documentLocation(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/documents/%s", id)
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createDocumentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	kind, err := domain.ParseKind(req.DocumentType)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	doc, err := h.documents.Create(r.Context(), document.CreateRequest{
		TenantID:           p.TenantID,
		Kind:               kind,
		IsReturn:           req.IsReturn,
		OriginalDocumentID: req.OriginalDocumentID,
		ConvertedFromID:    req.ConvertedFromID,
		Draft:              req.draft(),
	})
	if err != nil {
		log.Warn("document creation failed", "error", err, "kind", kind)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", documentLocation(doc.ID))
	RespondSuccess(w, http.StatusCreated, toDocumentDTO(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	doc, err := h.documents.Get(r.Context(), p.TenantID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var body documentBody
	if err := decodeJSON(r, &body, false); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := body.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	doc, err := h.documents.Update(r.Context(), document.UpdateRequest{
		TenantID: p.TenantID,
		ID:       id,
		Draft:    body.draft(),
	})
	if err != nil {
		log.Warn("document update failed", "error", err, "document_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.documents.Delete(r.Context(), p.TenantID, id); err != nil {
		log.Warn("document deletion failed", "error", err, "document_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *DocumentHandler) Convert(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req convertRequest
	if err := decodeJSON(r, &req, true); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	date, _ := parseDate(req.Date)

	target, _, err := h.documents.Convert(r.Context(), document.ConvertRequest{
		TenantID: p.TenantID,
		SourceID: id,
		Number:   req.Number,
		Date:     date,
	})
	if err != nil {
		log.Warn("document conversion failed", "error", err, "document_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", documentLocation(target.ID))
	RespondSuccess(w, http.StatusCreated, toDocumentDTO(target))
}

func (h *DocumentHandler) Return(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, id, appErr := scopedID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req returnRequest
	if err := decodeJSON(r, &req, true); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	date, _ := parseDate(req.Date)

	doc, err := h.documents.Return(r.Context(), document.ReturnRequest{
		TenantID: p.TenantID,
		SourceID: id,
		Number:   req.Number,
		Date:     date,
		Lines:    toDomainLines(req.Lines),
		RoundOff: req.RoundOff,
		Settled:  req.AmountSettled,
	})
	if err != nil {
		log.Warn("document return failed", "error", err, "document_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", documentLocation(doc.ID))
	RespondSuccess(w, http.StatusCreated, toDocumentDTO(doc))
}
