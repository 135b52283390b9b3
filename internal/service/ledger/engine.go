// Package ledger applies the stock and balance effects of documents,
// adjustments and payments. Every counter change is an atomic increment
// paired with a journal movement in the caller's transaction.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/shopspring/decimal"
)

type stockLedger interface {
	Resolve(ctx context.Context, tx *sql.Tx, tenantID, itemID uuid.UUID) (*domain.CatalogEntry, error)
	IncrementQuantity(ctx context.Context, tx *sql.Tx, tenantID, stockRecordID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type balanceLedger interface {
	IncrementBalance(ctx context.Context, tx *sql.Tx, tenantID, partyID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type movementJournal interface {
	Create(ctx context.Context, tx *sql.Tx, m *domain.Movement) error
	ListLiveForUpdate(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID) ([]domain.Movement, error)
	MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error
}

type Engine struct {
	stock     stockLedger
	balances  balanceLedger
	movements movementJournal
	now       func() time.Time
}

func NewEngine(stock stockLedger, balances balanceLedger, movements movementJournal) *Engine {
	return &Engine{
		stock:     stock,
		balances:  balances,
		movements: movements,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Effects summarizes what Apply changed.
type Effects struct {
	StockMovements int
	BalanceDelta   decimal.Decimal
}

// Apply computes the signed deltas of doc from its rule and applies them.
// It does not de-duplicate: callers apply a document exactly once.
func (e *Engine) Apply(ctx context.Context, tx *sql.Tx, doc *domain.Document) (*Effects, error) {
	rule, err := doc.Rule()
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}

	effects := &Effects{}
	recorder := recorderKind(doc)

	if rule.StockSign != 0 && !doc.StockAppliedUpstream {
		sign := decimal.NewFromInt(int64(rule.StockSign))
		for _, l := range doc.Lines {
			stockID, ok, err := e.stockRecordFor(ctx, tx, doc.TenantID, l)
			if err != nil {
				return nil, fmt.Errorf("Apply: %w", err)
			}
			if !ok {
				continue
			}
			if _, err := e.move(ctx, tx, doc.TenantID, doc.ID, recorder, domain.LedgerStock, stockID, l.Quantity.Mul(sign)); err != nil {
				return nil, fmt.Errorf("Apply: %w", err)
			}
			effects.StockMovements++
		}
	}

	if rule.BalanceSign != 0 && doc.Party.ID != nil {
		delta := balanceAmount(rule, doc).Mul(decimal.NewFromInt(int64(rule.BalanceSign)))
		if !delta.IsZero() {
			if _, err := e.move(ctx, tx, doc.TenantID, doc.ID, recorder, domain.LedgerBalance, *doc.Party.ID, delta); err != nil {
				return nil, fmt.Errorf("Apply: %w", err)
			}
			effects.BalanceDelta = delta
		}
	}

	return effects, nil
}

// AdjustStock applies a single stock delta outside of a document.
func (e *Engine) AdjustStock(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID, recorderKind string, stockRecordID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	qty, err := e.move(ctx, tx, tenantID, recorderID, recorderKind, domain.LedgerStock, stockRecordID, delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("AdjustStock: %w", err)
	}
	return qty, nil
}

// AdjustBalance applies a single party balance delta outside of a document.
func (e *Engine) AdjustBalance(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID, recorderKind string, partyID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	balance, err := e.move(ctx, tx, tenantID, recorderID, recorderKind, domain.LedgerBalance, partyID, delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("AdjustBalance: %w", err)
	}
	return balance, nil
}

// Reverse negates every live movement recorded by recorderID and returns how
// many were reversed. Counters whose record no longer exists are skipped.
func (e *Engine) Reverse(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID) (int, error) {
	log := logging.FromContext(ctx)

	live, err := e.movements.ListLiveForUpdate(ctx, tx, tenantID, recorderID)
	if err != nil {
		return 0, fmt.Errorf("Reverse: %w", err)
	}

	now := e.now()
	for _, m := range live {
		delta := m.Delta.Neg()
		if _, err := e.increment(ctx, tx, tenantID, m.Ledger, m.TargetID, delta); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return 0, fmt.Errorf("Reverse: %w", err)
			}
			log.Warn("reversal target missing, skipping counter",
				"movement_id", m.ID,
				"ledger", m.Ledger,
				"target_id", m.TargetID,
			)
		}

		original := m.ID
		reversal := &domain.Movement{
			ID:           uuid.New(),
			TenantID:     tenantID,
			RecorderID:   recorderID,
			RecorderKind: m.RecorderKind,
			Ledger:       m.Ledger,
			TargetID:     m.TargetID,
			Delta:        delta,
			ReversalOf:   &original,
			CreatedAt:    now,
		}
		if err := e.movements.Create(ctx, tx, reversal); err != nil {
			return 0, fmt.Errorf("Reverse: journal: %w", err)
		}
		if err := e.movements.MarkReversed(ctx, tx, m.ID, now); err != nil {
			return 0, fmt.Errorf("Reverse: %w", err)
		}
	}

	return len(live), nil
}

func (e *Engine) stockRecordFor(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, l domain.LineItem) (uuid.UUID, bool, error) {
	if l.ItemID == nil {
		return uuid.Nil, false, nil
	}
	entry, err := e.stock.Resolve(ctx, tx, tenantID, *l.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("stockRecordFor: %w", err)
	}
	if !entry.TracksStock() {
		return uuid.Nil, false, nil
	}
	return *entry.StockRecordID, true, nil
}

func (e *Engine) move(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID, recorderKind string, ledger domain.LedgerName, targetID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	current, err := e.increment(ctx, tx, tenantID, ledger, targetID, delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("move: %w", err)
	}

	m := &domain.Movement{
		ID:           uuid.New(),
		TenantID:     tenantID,
		RecorderID:   recorderID,
		RecorderKind: recorderKind,
		Ledger:       ledger,
		TargetID:     targetID,
		Delta:        delta,
		CreatedAt:    e.now(),
	}
	if err := e.movements.Create(ctx, tx, m); err != nil {
		return decimal.Zero, fmt.Errorf("move: journal: %w", err)
	}

	logging.FromContext(ctx).Debug("ledger movement applied",
		"ledger", ledger,
		"target_id", targetID,
		"delta", delta,
		"recorder_id", recorderID,
		"recorder_kind", recorderKind,
	)
	return current, nil
}

func (e *Engine) increment(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, ledger domain.LedgerName, targetID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	switch ledger {
	case domain.LedgerStock:
		return e.stock.IncrementQuantity(ctx, tx, tenantID, targetID, delta)
	case domain.LedgerBalance:
		return e.balances.IncrementBalance(ctx, tx, tenantID, targetID, delta)
	default:
		return decimal.Zero, fmt.Errorf("unknown ledger %q", ledger)
	}
}

func balanceAmount(rule domain.Rule, doc *domain.Document) decimal.Decimal {
	switch rule.Basis {
	case domain.BasisBalanceDue:
		return doc.Payment.Charged(doc.Totals.GrandTotal)
	case domain.BasisGrandTotal:
		return doc.Totals.GrandTotal
	default:
		return decimal.Zero
	}
}

func recorderKind(doc *domain.Document) string {
	if doc.Linkage.IsReturn && !domain.AlwaysReturn(doc.Kind) {
		return string(doc.Kind) + "_RETURN"
	}
	return string(doc.Kind)
}
