package document

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
)

type UpdateRequest struct {
	TenantID uuid.UUID
	ID       uuid.UUID
	Draft
}

// Update replaces the header and lines of an OPEN document. Its ledger
// effects are reversed and applied again from the new content. Amounts that
// payment receipts allocated are carried over untouched; those receipts keep
// their own balance movements.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*domain.Document, error) {
	log := logging.FromContext(ctx)

	var doc *domain.Document
	var reversed int
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		var err error
		doc, err = s.locate(ctx, tx, req.TenantID, req.ID)
		if err != nil {
			return err
		}
		if doc.Status != domain.StatusOpen {
			return fmt.Errorf("%s %s: %w", doc.Kind, doc.Number, domain.ErrDocumentConverted)
		}

		party := doc.Party.ID
		if err := s.applyDraft(ctx, doc, req.Draft); err != nil {
			return err
		}
		if err := checkAllocations(doc, party); err != nil {
			return err
		}
		doc.UpdatedAt = s.now()

		reversed, err = s.effects.Reverse(ctx, tx, doc.TenantID, doc.ID)
		if err != nil {
			return err
		}
		if _, err := s.effects.Apply(ctx, tx, doc); err != nil {
			return err
		}
		return s.store.Update(ctx, tx, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	log.Info("document updated",
		"document_id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"reversed_movements", reversed,
	)

	return doc, nil
}

// Delete removes a document after negating every ledger movement it made.
// Linked documents keep their references; those are weak.
//
// Two deletes are refused because the reversal would undo effects another
// record depends on: a converted source whose successor skipped stock on its
// account, and a document that payment receipts settled.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	var doc *domain.Document
	var reversed int
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		var err error
		doc, err = s.locate(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if err := checkDeletable(doc); err != nil {
			return err
		}
		reversed, err = s.effects.Reverse(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, tx, doc.Kind, tenantID, id); err != nil {
			return err
		}
		return s.index.Remove(ctx, tx, tenantID, id)
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	log.Info("document deleted",
		"document_id", id,
		"kind", doc.Kind,
		"number", doc.Number,
		"reversed_movements", reversed,
	)
	return nil
}

// checkAllocations rejects an edit that would leave receipt allocations
// exceeding what the document charges, or point them at another party.
func checkAllocations(doc *domain.Document, previousParty *uuid.UUID) error {
	if !doc.HasAllocations() {
		return nil
	}
	if doc.Party.ID == nil || previousParty == nil || *doc.Party.ID != *previousParty {
		return fmt.Errorf("%s %s: party of a settled document cannot change: %w",
			doc.Kind, doc.Number, domain.ErrInvalidSettlement)
	}
	if charged := doc.Payment.Charged(doc.Totals.GrandTotal); doc.Payment.Allocated.GreaterThan(charged) {
		return fmt.Errorf("%s %s: receipts allocated %s, document would charge %s: %w",
			doc.Kind, doc.Number, doc.Payment.Allocated, charged, domain.ErrInvalidSettlement)
	}
	return nil
}

func checkDeletable(doc *domain.Document) error {
	rule, err := doc.Rule()
	if err != nil {
		return err
	}
	if doc.Status == domain.StatusConverted && rule.StockSign != 0 {
		return fmt.Errorf("%s %s: successor relies on its stock movements: %w",
			doc.Kind, doc.Number, domain.ErrDocumentConverted)
	}
	if doc.HasAllocations() {
		return fmt.Errorf("%s %s: %w", doc.Kind, doc.Number, domain.ErrDocumentAllocated)
	}
	return nil
}
