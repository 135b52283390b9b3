package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
)

type ConvertRequest struct {
	TenantID uuid.UUID
	SourceID uuid.UUID
	// Number and Date override the copied values when set.
	Number string
	Date   time.Time
}

// Convert turns an OPEN order, proforma, estimate, challan or purchase order
// into its invoice-class successor. A source that is already CONVERTED is
// rejected with domain.ErrAlreadyConverted and nothing is written.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*domain.Document, *domain.Document, error) {
	log := logging.FromContext(ctx)

	var src, target *domain.Document
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		var err error
		src, err = s.locate(ctx, tx, req.TenantID, req.SourceID)
		if err != nil {
			return err
		}

		rule, err := src.Rule()
		if err != nil {
			return err
		}
		if rule.ConvertsTo == "" {
			return fmt.Errorf("%s: %w", src.Kind, domain.ErrInvalidConversion)
		}
		if src.Status != domain.StatusOpen {
			return fmt.Errorf("%s %s: %w", src.Kind, src.Number, domain.ErrAlreadyConverted)
		}

		target = successorOf(src, rule.ConvertsTo, s.now())
		target.Number = req.Number
		if !req.Date.IsZero() {
			target.Date = req.Date
		}

		targetRule, err := target.Rule()
		if err != nil {
			return err
		}
		if err := s.assignNumber(ctx, tx, target, targetRule); err != nil {
			return err
		}
		if err := s.link(ctx, tx, src, target); err != nil {
			return err
		}
		if _, err := s.persist(ctx, tx, target); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Convert: %w", err)
	}

	log.Info("document converted",
		"source_id", src.ID,
		"source_kind", src.Kind,
		"target_id", target.ID,
		"target_kind", target.Kind,
		"target_number", target.Number,
		"stock_applied_upstream", target.StockAppliedUpstream,
	)

	return target, src, nil
}

// successorOf copies the commercial content of src into a new OPEN document
// of kind. Identity, status, numbering and links are not carried over.
func successorOf(src *domain.Document, kind domain.Kind, now time.Time) *domain.Document {
	lines := make([]domain.LineItem, len(src.Lines))
	copy(lines, src.Lines)

	doc := &domain.Document{
		ID:            uuid.New(),
		TenantID:      src.TenantID,
		Kind:          kind,
		Date:          src.Date,
		DueDate:       src.DueDate,
		Party:         src.Party,
		StateOfSupply: src.StateOfSupply,
		Description:   src.Description,
		Lines:         lines,
		Totals:        src.Totals,
		Payment:       domain.Payment{Type: src.Payment.Type, Settled: src.Payment.Settled},
		Status:        domain.StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	doc.Payment.Recompute(doc.Totals.GrandTotal)
	return doc
}
