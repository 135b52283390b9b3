package domain

type Side string

const (
	SideSale     Side = "sale"
	SidePurchase Side = "purchase"
)

// BalanceBasis selects which amount of a document moves the party balance.
type BalanceBasis int

const (
	BasisNone BalanceBasis = iota
	// BasisBalanceDue is what is still due net of the at-creation settlement.
	// Receipt allocations do not reduce it; receipts move the balance themselves.
	BasisBalanceDue
	BasisGrandTotal
)

// Rule is the single source of truth for how a document variant numbers
// itself and what it does to the stock and balance ledgers.
type Rule struct {
	Kind   Kind
	Return bool
	Side   Side
	Prefix string

	// StockSign is applied to each stock-linked line quantity; 0 means no effect.
	StockSign int
	// BalanceSign is applied once per document to the amount picked by Basis.
	BalanceSign int
	Basis       BalanceBasis

	// ConvertsTo is the target variant of an explicit conversion, empty when
	// the variant cannot be converted.
	ConvertsTo Kind
	// ReturnsAs is the variant a return of this document is issued as.
	ReturnsAs Kind
}

func (r Rule) HasEffect() bool {
	return r.StockSign != 0 || r.BalanceSign != 0
}

type ruleKey struct {
	kind     Kind
	isReturn bool
}

var rules = map[ruleKey]Rule{
	{KindSaleOrder, false}: {
		Kind: KindSaleOrder, Side: SideSale, Prefix: "ORD", ConvertsTo: KindSaleInvoice,
	},
	{KindProforma, false}: {
		Kind: KindProforma, Side: SideSale, Prefix: "PRO", ConvertsTo: KindSaleInvoice,
	},
	{KindEstimate, false}: {
		Kind: KindEstimate, Side: SideSale, Prefix: "EST", ConvertsTo: KindSaleInvoice,
	},
	{KindSaleInvoice, false}: {
		Kind: KindSaleInvoice, Side: SideSale, Prefix: "INV",
		StockSign: -1, BalanceSign: 1, Basis: BasisBalanceDue,
		ReturnsAs: KindCreditNote,
	},
	{KindDeliveryChallan, false}: {
		Kind: KindDeliveryChallan, Side: SideSale, Prefix: "DC",
		StockSign: -1, ConvertsTo: KindSaleInvoice,
	},
	{KindCreditNote, true}: {
		Kind: KindCreditNote, Return: true, Side: SideSale, Prefix: "CN",
		StockSign: 1, BalanceSign: -1, Basis: BasisGrandTotal,
	},
	{KindPurchaseOrder, false}: {
		Kind: KindPurchaseOrder, Side: SidePurchase, Prefix: "PO", ConvertsTo: KindPurchaseBill,
	},
	{KindPurchaseBill, false}: {
		Kind: KindPurchaseBill, Side: SidePurchase, Prefix: "BILL",
		StockSign: 1, BalanceSign: 1, Basis: BasisBalanceDue,
		ReturnsAs: KindPurchaseBill,
	},
	{KindPurchaseBill, true}: {
		Kind: KindPurchaseBill, Return: true, Side: SidePurchase, Prefix: "RET",
		StockSign: -1, BalanceSign: 1, Basis: BasisBalanceDue,
	},
	{KindDebitNote, true}: {
		Kind: KindDebitNote, Return: true, Side: SidePurchase, Prefix: "DN",
		StockSign: -1, BalanceSign: -1, Basis: BasisGrandTotal,
	},
}

func RuleFor(kind Kind, isReturn bool) (Rule, bool) {
	r, ok := rules[ruleKey{kind, isReturn}]
	return r, ok
}

// AlwaysReturn reports whether every document of the kind is a reversal.
func AlwaysReturn(kind Kind) bool {
	_, plain := rules[ruleKey{kind, false}]
	_, ret := rules[ruleKey{kind, true}]
	return ret && !plain
}
