package pricing

import (
	"fmt"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Price fills the computed discount, tax and row amounts of every line and
// returns the document totals. roundOff is taken as given by the caller.
func Price(lines []domain.LineItem, roundOff decimal.Decimal) ([]domain.LineItem, domain.Totals, error) {
	priced := make([]domain.LineItem, len(lines))
	totals := domain.Totals{RoundOff: roundOff.Round(moneyPlaces)}

	for i, l := range lines {
		p, base, err := priceLine(l)
		if err != nil {
			return nil, domain.Totals{}, fmt.Errorf("Price: line %d: %w", i+1, err)
		}
		priced[i] = p
		totals.SubTotal = totals.SubTotal.Add(base)
		totals.TotalDiscount = totals.TotalDiscount.Add(p.Discount.Amount)
		totals.TotalTax = totals.TotalTax.Add(p.Tax.Amount)
		totals.GrandTotal = totals.GrandTotal.Add(p.Amount)
	}
	totals.GrandTotal = totals.GrandTotal.Add(totals.RoundOff)

	return priced, totals, nil
}

func priceLine(l domain.LineItem) (domain.LineItem, decimal.Decimal, error) {
	if !domain.ValidQuantity(l.Quantity) {
		return l, decimal.Zero, fmt.Errorf("quantity %s: %w", l.Quantity, domain.ErrInvalidQuantity)
	}
	if l.Price.Amount.IsNegative() {
		return l, decimal.Zero, fmt.Errorf("negative unit price: %w", domain.ErrInvalidRequest)
	}
	if l.Tax.Rate.IsNegative() || l.Tax.Rate.GreaterThan(hundred) {
		return l, decimal.Zero, fmt.Errorf("tax rate out of range: %w", domain.ErrInvalidRequest)
	}
	if l.Discount.Percent.IsNegative() || l.Discount.Percent.GreaterThan(hundred) {
		return l, decimal.Zero, fmt.Errorf("discount percent out of range: %w", domain.ErrInvalidRequest)
	}
	if l.Discount.Amount.IsNegative() {
		return l, decimal.Zero, fmt.Errorf("negative discount: %w", domain.ErrInvalidRequest)
	}
	if l.Price.TaxType == "" {
		l.Price.TaxType = domain.TaxTypeWithoutTax
	}

	gross := l.Quantity.Mul(l.Price.Amount)
	base := gross
	if l.Price.TaxType == domain.TaxTypeWithTax && l.Tax.Rate.IsPositive() {
		base = gross.Div(one.Add(l.Tax.Rate.Div(hundred)))
	}
	base = base.Round(moneyPlaces)

	discount := l.Discount.Amount
	if l.Discount.Percent.IsPositive() {
		discount = base.Mul(l.Discount.Percent).Div(hundred)
	}
	discount = discount.Round(moneyPlaces)
	if discount.GreaterThan(base) {
		return l, decimal.Zero, fmt.Errorf("discount exceeds line value: %w", domain.ErrInvalidRequest)
	}

	taxable := base.Sub(discount)
	tax := taxable.Mul(l.Tax.Rate).Div(hundred).Round(moneyPlaces)

	l.Discount.Amount = discount
	l.Tax.Amount = tax
	l.Amount = taxable.Add(tax)
	return l, base, nil
}
