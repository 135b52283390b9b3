package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	entries map[uuid.UUID]domain.CatalogEntry
}

func (f *fakeCatalog) Resolve(_ context.Context, _ *sql.Tx, _, itemID uuid.UUID) (*domain.CatalogEntry, error) {
	e, ok := f.entries[itemID]
	if !ok {
		return nil, fmt.Errorf("Resolve: %w", domain.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeCatalog) GetByItemID(_ context.Context, _, itemID uuid.UUID) (*domain.StockRecord, error) {
	if _, ok := f.entries[itemID]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.StockRecord{ItemID: itemID}, nil
}

type fakeLedger struct {
	qty   map[uuid.UUID]decimal.Decimal
	kinds []string
}

func (f *fakeLedger) AdjustStock(_ context.Context, _ *sql.Tx, _, _ uuid.UUID, kind string, stockID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	f.kinds = append(f.kinds, kind)
	f.qty[stockID] = f.qty[stockID].Add(delta)
	return f.qty[stockID], nil
}

type inlineTx struct{}

func (inlineTx) RunAtomic(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

func TestAdjust(t *testing.T) {
	product, service := uuid.New(), uuid.New()
	stockID := uuid.New()

	tests := []struct {
		name      string
		item      uuid.UUID
		qty       int64
		typ       AdjustmentType
		wantStock int64
		wantErr   error
	}{
		{name: "reduce", item: product, qty: 2, typ: AdjustReduce, wantStock: 3},
		{name: "add", item: product, qty: 2, typ: AdjustAdd, wantStock: 7},
		{name: "reduce below zero", item: product, qty: 8, typ: AdjustReduce, wantStock: -3},
		{name: "zero quantity", item: product, qty: 0, typ: AdjustAdd, wantErr: domain.ErrInvalidQuantity},
		{name: "negative quantity", item: product, qty: -1, typ: AdjustAdd, wantErr: domain.ErrInvalidQuantity},
		{name: "unknown type", item: product, qty: 1, typ: "SET", wantErr: domain.ErrInvalidRequest},
		{name: "service item", item: service, qty: 1, typ: AdjustAdd, wantErr: domain.ErrNotStockItem},
		{name: "unknown item", item: uuid.New(), qty: 1, typ: AdjustAdd, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &fakeCatalog{entries: map[uuid.UUID]domain.CatalogEntry{
				product: {ItemID: product, Kind: domain.ItemKindProduct, StockRecordID: &stockID},
				service: {ItemID: service, Kind: domain.ItemKindService},
			}}
			led := &fakeLedger{qty: map[uuid.UUID]decimal.Decimal{stockID: decimal.NewFromInt(5)}}
			svc := NewService(cat, led, inlineTx{})

			adj, err := svc.Adjust(context.Background(), AdjustRequest{
				TenantID: uuid.New(),
				ItemID:   tt.item,
				Quantity: decimal.NewFromInt(tt.qty),
				Type:     tt.typ,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, led.kinds)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.wantStock).Equal(adj.NewStock), "got %s", adj.NewStock)
			assert.Equal(t, []string{domain.RecorderAdjustment}, led.kinds)
		})
	}
}

func TestAdjust_QuantityPrecision(t *testing.T) {
	product, stockID := uuid.New(), uuid.New()
	cat := &fakeCatalog{entries: map[uuid.UUID]domain.CatalogEntry{
		product: {ItemID: product, Kind: domain.ItemKindProduct, StockRecordID: &stockID},
	}}
	led := &fakeLedger{qty: map[uuid.UUID]decimal.Decimal{stockID: decimal.NewFromInt(5)}}
	svc := NewService(cat, led, inlineTx{})

	_, err := svc.Adjust(context.Background(), AdjustRequest{
		TenantID: uuid.New(), ItemID: product, Quantity: decimal.RequireFromString("0.0001"), Type: AdjustAdd,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, led.kinds)

	adj, err := svc.Adjust(context.Background(), AdjustRequest{
		TenantID: uuid.New(), ItemID: product, Quantity: decimal.RequireFromString("1.250"), Type: AdjustAdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "6.25", adj.NewStock.String())
}
