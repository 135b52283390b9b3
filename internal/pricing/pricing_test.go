package pricing

import (
	"testing"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(qty, price string, taxType domain.TaxType, rate, pct, disc string) domain.LineItem {
	return domain.LineItem{
		Name:     "widget",
		Quantity: d(qty),
		Price:    domain.UnitPrice{Amount: d(price), TaxType: taxType},
		Discount: domain.Discount{Percent: d(pct), Amount: d(disc)},
		Tax:      domain.Tax{Rate: d(rate)},
	}
}

func TestPriceLine(t *testing.T) {
	tests := []struct {
		name         string
		line         domain.LineItem
		wantAmount   string
		wantTax      string
		wantDiscount string
		wantBase     string
		wantErr      error
	}{
		{
			name:         "plain quantity times price",
			line:         line("3", "100", domain.TaxTypeWithoutTax, "0", "0", "0"),
			wantAmount:   "300",
			wantTax:      "0",
			wantDiscount: "0",
			wantBase:     "300",
		},
		{
			name:         "tax inclusive price is split",
			line:         line("1", "118", domain.TaxTypeWithTax, "18", "0", "0"),
			wantAmount:   "118",
			wantTax:      "18",
			wantDiscount: "0",
			wantBase:     "100",
		},
		{
			name:         "percent discount before tax",
			line:         line("2", "50", domain.TaxTypeWithoutTax, "5", "10", "0"),
			wantAmount:   "94.5",
			wantTax:      "4.5",
			wantDiscount: "10",
			wantBase:     "100",
		},
		{
			name:         "fixed discount",
			line:         line("4", "25", "", "0", "0", "15"),
			wantAmount:   "85",
			wantTax:      "0",
			wantDiscount: "15",
			wantBase:     "100",
		},
		{
			name:    "zero quantity",
			line:    line("0", "10", domain.TaxTypeWithoutTax, "0", "0", "0"),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "quantity finer than stock precision",
			line:    line("1.0005", "10", domain.TaxTypeWithoutTax, "0", "0", "0"),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:         "three decimal quantity",
			line:         line("2.125", "8", domain.TaxTypeWithoutTax, "0", "0", "0"),
			wantAmount:   "17",
			wantTax:      "0",
			wantDiscount: "0",
			wantBase:     "17",
		},
		{
			name:    "negative price",
			line:    line("1", "-1", domain.TaxTypeWithoutTax, "0", "0", "0"),
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "discount larger than line",
			line:    line("1", "10", domain.TaxTypeWithoutTax, "0", "0", "11"),
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "tax rate above 100",
			line:    line("1", "10", domain.TaxTypeWithoutTax, "101", "0", "0"),
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, base, err := priceLine(tc.line)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAmount, got.Amount.String())
			assert.Equal(t, tc.wantTax, got.Tax.Amount.String())
			assert.Equal(t, tc.wantDiscount, got.Discount.Amount.String())
			assert.Equal(t, tc.wantBase, base.String())
		})
	}
}

func TestPrice_Totals(t *testing.T) {
	lines := []domain.LineItem{
		line("1", "118", domain.TaxTypeWithTax, "18", "0", "0"),
		line("2", "50", domain.TaxTypeWithoutTax, "5", "10", "0"),
	}

	priced, totals, err := Price(lines, d("0.5"))
	require.NoError(t, err)
	require.Len(t, priced, 2)

	assert.Equal(t, "200", totals.SubTotal.String())
	assert.Equal(t, "10", totals.TotalDiscount.String())
	assert.Equal(t, "22.5", totals.TotalTax.String())
	assert.Equal(t, "0.5", totals.RoundOff.String())
	assert.Equal(t, "213", totals.GrandTotal.String())
	assert.True(t, lines[0].Amount.IsZero(), "input lines are not mutated")
}

func TestPrice_ReportsLineNumber(t *testing.T) {
	lines := []domain.LineItem{
		line("1", "10", domain.TaxTypeWithoutTax, "0", "0", "0"),
		line("0", "10", domain.TaxTypeWithoutTax, "0", "0", "0"),
	}

	_, _, err := Price(lines, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Contains(t, err.Error(), "line 2")
}
