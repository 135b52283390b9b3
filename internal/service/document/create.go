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
	"github.com/josh-kwaku/billing-ledger/internal/service/ledger"
	"github.com/shopspring/decimal"
)

// Draft is the client supplied part of a document.
type Draft struct {
	Number        string
	Date          time.Time
	DueDate       *time.Time
	PartyID       *uuid.UUID
	PartyName     string
	PartyPhone    string
	StateOfSupply string
	Description   string
	Lines         []domain.LineItem
	RoundOff      decimal.Decimal
	PaymentType   string
	Settled       decimal.Decimal
}

type CreateRequest struct {
	TenantID uuid.UUID
	Kind     domain.Kind
	IsReturn bool

	OriginalDocumentID *uuid.UUID
	// ConvertedFromID names a predecessor that this document supersedes.
	ConvertedFromID *uuid.UUID

	Draft
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Document, error) {
	log := logging.FromContext(ctx)

	isReturn := req.IsReturn || domain.AlwaysReturn(req.Kind)
	rule, ok := domain.RuleFor(req.Kind, isReturn)
	if !ok {
		return nil, fmt.Errorf("Create: %q: %w", req.Kind, domain.ErrInvalidDocumentType)
	}

	now := s.now()
	doc := &domain.Document{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		Kind:      req.Kind,
		Status:    domain.StatusOpen,
		Linkage:   domain.Linkage{IsReturn: isReturn, OriginalDocumentID: req.OriginalDocumentID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyDraft(ctx, doc, req.Draft); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if req.OriginalDocumentID != nil {
		if _, err := s.index.Lookup(ctx, req.TenantID, *req.OriginalDocumentID); err != nil {
			return nil, fmt.Errorf("Create: original document: %w", err)
		}
	}

	var effects *ledger.Effects
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		if err := s.assignNumber(ctx, tx, doc, rule); err != nil {
			return err
		}
		if req.ConvertedFromID != nil {
			src, err := s.locate(ctx, tx, req.TenantID, *req.ConvertedFromID)
			if err != nil {
				return fmt.Errorf("predecessor: %w", err)
			}
			if err := s.link(ctx, tx, src, doc); err != nil {
				return err
			}
		}
		applied, err := s.persist(ctx, tx, doc)
		if err != nil {
			return err
		}
		effects = applied
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("document created",
		"document_id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"is_return", doc.Linkage.IsReturn,
		"stock_movements", effects.StockMovements,
		"balance_delta", effects.BalanceDelta,
	)

	return doc, nil
}

// applyDraft copies the client fields onto doc, prices the lines and derives
// the payment state.
func (s *Service) applyDraft(ctx context.Context, doc *domain.Document, d Draft) error {
	if len(d.Lines) == 0 {
		return fmt.Errorf("applyDraft: at least one line item: %w", domain.ErrInvalidRequest)
	}
	if d.Settled.IsNegative() {
		return fmt.Errorf("applyDraft: settled amount: %w", domain.ErrInvalidRequest)
	}

	lines, totals, err := pricing.Price(d.Lines, d.RoundOff)
	if err != nil {
		return fmt.Errorf("applyDraft: %w", err)
	}

	party := domain.PartyRef{ID: d.PartyID, Name: d.PartyName, Phone: d.PartyPhone}
	if d.PartyID != nil {
		p, err := s.parties.GetByID(ctx, doc.TenantID, *d.PartyID)
		if err != nil {
			return fmt.Errorf("applyDraft: party: %w", err)
		}
		if party.Name == "" {
			party.Name = p.Name
		}
		if party.Phone == "" {
			party.Phone = p.Phone
		}
	}

	if d.Number != "" {
		doc.Number = d.Number
	}
	doc.Date = d.Date
	if doc.Date.IsZero() {
		doc.Date = s.now().Truncate(24 * time.Hour)
	}
	doc.DueDate = d.DueDate
	doc.Party = party
	doc.StateOfSupply = d.StateOfSupply
	doc.Description = d.Description
	doc.Lines = lines
	doc.Totals = totals
	doc.Payment = domain.Payment{Type: d.PaymentType, Settled: d.Settled, Allocated: doc.Payment.Allocated}
	doc.Payment.Recompute(doc.Totals.GrandTotal)
	return nil
}

// link marks src CONVERTED in favour of target and records the predecessor on
// target. Stock is not moved twice when src already moved it the same way.
func (s *Service) link(ctx context.Context, tx *sql.Tx, src, target *domain.Document) error {
	srcRule, err := src.Rule()
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	targetRule, err := target.Rule()
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if srcRule.ConvertsTo == "" || srcRule.ConvertsTo != target.Kind || target.Linkage.IsReturn {
		return fmt.Errorf("link: %s to %s: %w", src.Kind, target.Kind, domain.ErrInvalidConversion)
	}
	if err := src.MarkConverted(target.Ref(), s.now()); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if err := s.store.Update(ctx, tx, src); err != nil {
		return fmt.Errorf("link: %w", err)
	}

	from := src.Ref()
	target.Linkage.ConvertedFrom = &from
	target.StockAppliedUpstream = srcRule.StockSign != 0 && srcRule.StockSign == targetRule.StockSign
	return nil
}
