package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRecompute(t *testing.T) {
	tests := []struct {
		name     string
		grand    string
		settled  string
		wantDue  string
		wantPaid bool
	}{
		{"nothing received", "300", "0", "300", false},
		{"partially received", "300", "100", "200", false},
		{"fully received", "300", "300", "0", true},
		{"within tolerance", "300", "299.99", "0", true},
		{"just above tolerance", "300", "299.98", "0.02", false},
		{"overpaid", "300", "350", "0", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Payment{Settled: decimal.RequireFromString(tc.settled)}
			p.Recompute(decimal.RequireFromString(tc.grand))
			assert.Equal(t, tc.wantDue, p.BalanceDue.String())
			assert.Equal(t, tc.wantPaid, p.IsPaid)
		})
	}
}

func TestMarkConverted(t *testing.T) {
	now := time.Now().UTC()
	doc := &Document{ID: uuid.New(), Kind: KindSaleOrder, Number: "ORD-1", Status: StatusOpen}
	target := DocRef{ID: uuid.New(), Kind: KindSaleInvoice}

	require.NoError(t, doc.MarkConverted(target, now))
	assert.Equal(t, StatusConverted, doc.Status)
	require.NotNil(t, doc.Linkage.ConvertedTo)
	assert.Equal(t, target, *doc.Linkage.ConvertedTo)

	err := doc.MarkConverted(DocRef{ID: uuid.New(), Kind: KindSaleInvoice}, now)
	require.ErrorIs(t, err, ErrAlreadyConverted)
	assert.Equal(t, target, *doc.Linkage.ConvertedTo, "successor link unchanged")
}

func TestSettle(t *testing.T) {
	doc := &Document{
		Totals:  Totals{GrandTotal: decimal.NewFromInt(500)},
		Payment: Payment{Settled: decimal.NewFromInt(100)},
	}
	doc.Payment.Recompute(doc.Totals.GrandTotal)

	doc.Settle(decimal.NewFromInt(250), time.Now())
	assert.Equal(t, "150", doc.Payment.BalanceDue.String())
	assert.False(t, doc.Payment.IsPaid)

	doc.Settle(decimal.NewFromInt(150), time.Now())
	assert.True(t, doc.Payment.BalanceDue.IsZero())
	assert.True(t, doc.Payment.IsPaid)
	assert.True(t, doc.HasAllocations())
}

func TestSettle_KeepsChargedAmount(t *testing.T) {
	grand := decimal.NewFromInt(300)
	doc := &Document{
		Totals:  Totals{GrandTotal: grand},
		Payment: Payment{Settled: decimal.NewFromInt(50)},
	}
	doc.Payment.Recompute(grand)
	require.Equal(t, "250", doc.Payment.Charged(grand).String())
	assert.False(t, doc.HasAllocations())

	doc.Settle(decimal.NewFromInt(250), time.Now())

	assert.Equal(t, "50", doc.Payment.Settled.String(), "receipt allocations do not touch the settled amount")
	assert.Equal(t, "250", doc.Payment.Allocated.String())
	assert.Equal(t, "250", doc.Payment.Charged(grand).String(), "the document's own charge is unchanged")
	assert.True(t, doc.Payment.IsPaid)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "ORD-3", FormatNumber("ORD", 3))
}
