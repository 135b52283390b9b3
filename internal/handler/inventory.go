package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/josh-kwaku/billing-ledger/internal/service/inventory"
)

type inventoryService interface {
	Adjust(ctx context.Context, req inventory.AdjustRequest) (*inventory.Adjustment, error)
	Stock(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.StockRecord, error)
}

type InventoryHandler struct {
	inventory inventoryService
}

func NewInventoryHandler(inventory inventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type adjustStockRequest struct {
	ItemID        *uuid.UUID       `json:"itemId" validate:"required"`
	AdjustmentQty *decimal.Decimal `json:"adjustmentQty" validate:"required"`
	Type          string           `json:"type" validate:"required,oneof=ADD REDUCE"`
	Remarks       string           `json:"remarks"`
}

type stockDTO struct {
	ItemID             uuid.UUID       `json:"itemId"`
	ItemName           string          `json:"itemName"`
	OpeningQuantity    decimal.Decimal `json:"openingQuantity"`
	CurrentQuantity    decimal.Decimal `json:"currentQuantity"`
	MinStockToMaintain decimal.Decimal `json:"minStockToMaintain"`
	BelowMinimum       bool            `json:"belowMinimum"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req adjustStockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	adj, err := h.inventory.Adjust(r.Context(), inventory.AdjustRequest{
		TenantID: p.TenantID,
		ItemID:   *req.ItemID,
		Quantity: *req.AdjustmentQty,
		Type:     inventory.AdjustmentType(req.Type),
		Remarks:  req.Remarks,
	})
	if err != nil {
		log.Warn("stock adjustment failed", "error", err, "item_id", req.ItemID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"itemId":   adj.ItemID,
		"newStock": adj.NewStock,
	})
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemId"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	rec, err := h.inventory.Stock(r.Context(), p.TenantID, itemID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, stockDTO{
		ItemID:             rec.ItemID,
		ItemName:           rec.ItemName,
		OpeningQuantity:    rec.OpeningQuantity,
		CurrentQuantity:    rec.CurrentQuantity,
		MinStockToMaintain: rec.MinStockToMaintain,
		BelowMinimum:       rec.CurrentQuantity.LessThan(rec.MinStockToMaintain),
		UpdatedAt:          rec.UpdatedAt,
	})
}
