// Package settlement records payments received from and paid to parties and
// allocates them against open invoices and bills.
package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/shopspring/decimal"
)

type documentStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, kind domain.Kind, tenantID, id uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, tx *sql.Tx, doc *domain.Document) error
}

type documentIndex interface {
	Lookup(ctx context.Context, tenantID, id uuid.UUID) (domain.Kind, error)
}

type receiptStore interface {
	Create(ctx context.Context, tx *sql.Tx, rc *domain.Receipt) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Receipt, error)
}

type partyDirectory interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Party, error)
}

type balanceAdjuster interface {
	AdjustBalance(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID, recorderKind string, partyID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type sequencer interface {
	Next(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, series string) (int64, error)
}

type txRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Service struct {
	documents documentStore
	index     documentIndex
	receipts  receiptStore
	parties   partyDirectory
	ledger    balanceAdjuster
	seq       sequencer
	db        txRunner
	now       func() time.Time
}

func NewService(
	documents documentStore,
	index documentIndex,
	receipts receiptStore,
	parties partyDirectory,
	ledger balanceAdjuster,
	seq sequencer,
	db txRunner,
) *Service {
	return &Service{
		documents: documents,
		index:     index,
		receipts:  receipts,
		parties:   parties,
		ledger:    ledger,
		seq:       seq,
		db:        db,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type PaymentRequest struct {
	TenantID    uuid.UUID
	Direction   domain.Direction
	PartyID     uuid.UUID
	ReceiptNo   string
	Date        time.Time
	Amount      decimal.Decimal
	Mode        domain.PaymentMode
	Remarks     string
	Allocations []domain.Allocation
}

// Record books a payment: the party balance drops by the amount and every
// allocation settles part of a linked document.
func (s *Service) Record(ctx context.Context, req PaymentRequest) (*domain.Receipt, error) {
	log := logging.FromContext(ctx)

	if err := validatePayment(req); err != nil {
		return nil, fmt.Errorf("Record: %w", err)
	}
	if _, err := s.parties.GetByID(ctx, req.TenantID, req.PartyID); err != nil {
		return nil, fmt.Errorf("Record: party: %w", err)
	}

	now := s.now()
	rc := &domain.Receipt{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		Direction:   req.Direction,
		ReceiptNo:   req.ReceiptNo,
		PartyID:     req.PartyID,
		Date:        req.Date,
		Amount:      req.Amount,
		Mode:        req.Mode,
		Remarks:     req.Remarks,
		Allocations: req.Allocations,
		CreatedAt:   now,
	}
	if rc.Date.IsZero() {
		rc.Date = now.Truncate(24 * time.Hour)
	}

	var balance decimal.Decimal
	err := s.db.RunAtomic(ctx, func(tx *sql.Tx) error {
		if rc.ReceiptNo == "" {
			n, err := s.seq.Next(ctx, tx, req.TenantID, req.Direction.Prefix())
			if err != nil {
				return err
			}
			rc.ReceiptNo = domain.FormatNumber(req.Direction.Prefix(), n)
		}

		if err := s.allocate(ctx, tx, rc, now); err != nil {
			return err
		}

		var err error
		balance, err = s.ledger.AdjustBalance(ctx, tx, req.TenantID, rc.ID, req.Direction.RecorderKind(), req.PartyID, req.Amount.Neg())
		if err != nil {
			return err
		}
		return s.receipts.Create(ctx, tx, rc)
	})
	if err != nil {
		return nil, fmt.Errorf("Record: %w", err)
	}

	log.Info("payment recorded",
		"receipt_id", rc.ID,
		"receipt_no", rc.ReceiptNo,
		"direction", rc.Direction,
		"party_id", rc.PartyID,
		"amount", rc.Amount,
		"allocations", len(rc.Allocations),
		"party_balance", balance,
	)

	return rc, nil
}

func (s *Service) GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*domain.Receipt, error) {
	rc, err := s.receipts.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: %w", err)
	}
	return rc, nil
}

// allocate settles the linked documents. Rows are locked in id order so two
// payments touching the same documents cannot deadlock.
func (s *Service) allocate(ctx context.Context, tx *sql.Tx, rc *domain.Receipt, now time.Time) error {
	allocs := make([]domain.Allocation, len(rc.Allocations))
	copy(allocs, rc.Allocations)
	sort.Slice(allocs, func(i, j int) bool {
		return allocs[i].DocumentID.String() < allocs[j].DocumentID.String()
	})

	want := rc.Direction.SettlesKind()
	for _, a := range allocs {
		kind, err := s.index.Lookup(ctx, rc.TenantID, a.DocumentID)
		if err != nil {
			return fmt.Errorf("allocate: %s: %w", a.DocumentID, err)
		}
		if kind != want {
			return fmt.Errorf("allocate: %s is a %s: %w", a.DocumentID, kind, domain.ErrInvalidSettlement)
		}
		doc, err := s.documents.GetForUpdate(ctx, tx, kind, rc.TenantID, a.DocumentID)
		if err != nil {
			return fmt.Errorf("allocate: %w", err)
		}
		if doc.Linkage.IsReturn {
			return fmt.Errorf("allocate: %s is a return: %w", doc.Number, domain.ErrInvalidSettlement)
		}
		if doc.Party.ID == nil || *doc.Party.ID != rc.PartyID {
			return fmt.Errorf("allocate: %s belongs to another party: %w", doc.Number, domain.ErrInvalidSettlement)
		}
		if a.AmountSettled.GreaterThan(doc.Payment.BalanceDue) {
			return fmt.Errorf("allocate: %s due %s, settling %s: %w",
				doc.Number, doc.Payment.BalanceDue, a.AmountSettled, domain.ErrInvalidSettlement)
		}
		doc.Settle(a.AmountSettled, now)
		if err := s.documents.Update(ctx, tx, doc); err != nil {
			return fmt.Errorf("allocate: %w", err)
		}
	}
	return nil
}

func validatePayment(req PaymentRequest) error {
	if req.Direction != domain.DirectionIn && req.Direction != domain.DirectionOut {
		return fmt.Errorf("direction %q: %w", req.Direction, domain.ErrInvalidRequest)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %w", domain.ErrInvalidRequest)
	}
	if !req.Mode.IsValid() {
		return fmt.Errorf("payment mode %q: %w", req.Mode, domain.ErrInvalidRequest)
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(req.Allocations))
	for _, a := range req.Allocations {
		if !a.AmountSettled.IsPositive() {
			return fmt.Errorf("allocation %s: amount must be positive: %w", a.DocumentID, domain.ErrInvalidSettlement)
		}
		if seen[a.DocumentID] {
			return fmt.Errorf("allocation %s listed twice: %w", a.DocumentID, domain.ErrInvalidSettlement)
		}
		seen[a.DocumentID] = true
		total = total.Add(a.AmountSettled)
	}
	if total.GreaterThan(req.Amount) {
		return fmt.Errorf("allocations %s exceed amount %s: %w", total, req.Amount, domain.ErrInvalidSettlement)
	}
	return nil
}
