package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/josh-kwaku/billing-ledger/internal/pricing"
	"github.com/shopspring/decimal"
)

type ReturnRequest struct {
	TenantID uuid.UUID
	SourceID uuid.UUID
	Number   string
	Date     time.Time
	// Lines replaces the original lines for a partial return. Empty means
	// everything on the original comes back.
	Lines    []domain.LineItem
	RoundOff decimal.Decimal
	Settled  decimal.Decimal
}

// Return issues the reversal document of a sale invoice (a credit note) or a
// purchase bill (a purchase return). The original is left untouched.
func (s *Service) Return(ctx context.Context, req ReturnRequest) (*domain.Document, error) {
	log := logging.FromContext(ctx)

	if req.Settled.IsNegative() {
		return nil, fmt.Errorf("Return: settled amount: %w", domain.ErrInvalidRequest)
	}

	src, err := s.Get(ctx, req.TenantID, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("Return: %w", err)
	}
	srcRule, err := src.Rule()
	if err != nil {
		return nil, fmt.Errorf("Return: %w", err)
	}
	if srcRule.ReturnsAs == "" {
		return nil, fmt.Errorf("Return: %s: %w", src.Kind, domain.ErrReturnNotSupported)
	}
	rule, ok := domain.RuleFor(srcRule.ReturnsAs, true)
	if !ok {
		return nil, fmt.Errorf("Return: %s: %w", srcRule.ReturnsAs, domain.ErrReturnNotSupported)
	}

	doc := successorOf(src, rule.Kind, s.now())
	originalID := src.ID
	doc.Linkage = domain.Linkage{IsReturn: true, OriginalDocumentID: &originalID}
	if !req.Date.IsZero() {
		doc.Date = req.Date
	}
	if len(req.Lines) > 0 {
		lines, totals, err := pricing.Price(req.Lines, req.RoundOff)
		if err != nil {
			return nil, fmt.Errorf("Return: %w", err)
		}
		doc.Lines = lines
		doc.Totals = totals
	}
	doc.Payment = domain.Payment{Type: src.Payment.Type, Settled: req.Settled}
	doc.Payment.Recompute(doc.Totals.GrandTotal)

	doc.Number = req.Number
	if doc.Number == "" && rule.Kind == src.Kind {
		// Purchase returns reuse the bill number under the return prefix.
		doc.Number = rule.Prefix + "-" + src.Number
	}

	err = s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		if err := s.assignNumber(ctx, tx, doc, rule); err != nil {
			return err
		}
		_, err := s.persist(ctx, tx, doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Return: %w", err)
	}

	log.Info("return issued",
		"document_id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"original_id", src.ID,
		"original_number", src.Number,
	)

	return doc, nil
}
