// Package document implements the document lifecycle: creation through the
// variant dispatcher, conversion chains, returns, edits and deletion. Ledger
// effects are delegated to the ledger engine inside one atomic scope per call.
package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/service/ledger"
)

type documentStore interface {
	Insert(ctx context.Context, tx *sql.Tx, doc *domain.Document) error
	Get(ctx context.Context, kind domain.Kind, tenantID, id uuid.UUID) (*domain.Document, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, kind domain.Kind, tenantID, id uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, tx *sql.Tx, doc *domain.Document) error
	Delete(ctx context.Context, tx *sql.Tx, kind domain.Kind, tenantID, id uuid.UUID) error
}

type documentIndex interface {
	Put(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID, kind domain.Kind) error
	Lookup(ctx context.Context, tenantID, id uuid.UUID) (domain.Kind, error)
	Remove(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID) error
}

type sequencer interface {
	Next(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, series string) (int64, error)
}

type partyDirectory interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Party, error)
}

type effectsEngine interface {
	Apply(ctx context.Context, tx *sql.Tx, doc *domain.Document) (*ledger.Effects, error)
	Reverse(ctx context.Context, tx *sql.Tx, tenantID, recorderID uuid.UUID) (int, error)
}

type txRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Service struct {
	store   documentStore
	index   documentIndex
	seq     sequencer
	parties partyDirectory
	effects effectsEngine
	db      txRunner
	now     func() time.Time
}

func NewService(
	store documentStore,
	index documentIndex,
	seq sequencer,
	parties partyDirectory,
	effects effectsEngine,
	db txRunner,
) *Service {
	return &Service{
		store:   store,
		index:   index,
		seq:     seq,
		parties: parties,
		effects: effects,
		db:      db,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error) {
	kind, err := s.index.Lookup(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	doc, err := s.store.Get(ctx, kind, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return doc, nil
}

// locate resolves the variant of id and locks the document for the rest of tx.
func (s *Service) locate(ctx context.Context, tx *sql.Tx, tenantID, id uuid.UUID) (*domain.Document, error) {
	kind, err := s.index.Lookup(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("locate: %w", err)
	}
	doc, err := s.store.GetForUpdate(ctx, tx, kind, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("locate: %w", err)
	}
	return doc, nil
}

// persist inserts a new document with its index row and applies its effects.
func (s *Service) persist(ctx context.Context, tx *sql.Tx, doc *domain.Document) (*ledger.Effects, error) {
	if err := s.store.Insert(ctx, tx, doc); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	if err := s.index.Put(ctx, tx, doc.TenantID, doc.ID, doc.Kind); err != nil {
		return nil, fmt.Errorf("persist: index: %w", err)
	}
	effects, err := s.effects.Apply(ctx, tx, doc)
	if err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	return effects, nil
}
