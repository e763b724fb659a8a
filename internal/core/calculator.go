package core

import "github.com/shopspring/decimal"

// moneyPlaces is the precision of every persisted amount.
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two places. Every amount in the
// ledger goes through this one function so rounding is consistent.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// Percent returns round(base × pct / 100, 2).
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(pct).Div(hundred))
}

// LineTotal is quantity × unit price − line discount.
func LineTotal(quantity, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return RoundMoney(quantity.Mul(unitPrice).Sub(discount))
}

// Recalculate rewrites the derived amounts of inv from its line items,
// discount, VAT rate and paid amount. It reads nothing else, so running it
// twice on an unchanged invoice yields identical figures.
func Recalculate(inv *Invoice) {
	subtotal := decimal.Zero
	for i := range inv.LineItems {
		li := &inv.LineItems[i]
		li.LineTotal = LineTotal(li.Quantity, li.UnitPrice, li.Discount)
		subtotal = subtotal.Add(li.LineTotal)
	}

	inv.Subtotal = subtotal
	inv.TaxableAmount = decimal.Max(decimal.Zero, subtotal.Sub(inv.DiscountAmount))
	inv.VATAmount = Percent(inv.TaxableAmount, inv.VATRate)
	inv.TotalAmount = inv.TaxableAmount.Add(inv.VATAmount)
	recalculateBalance(inv)
}

// recalculateBalance refreshes BalanceDue after PaidAmount changes.
func recalculateBalance(inv *Invoice) {
	inv.BalanceDue = decimal.Max(decimal.Zero, inv.TotalAmount.Sub(inv.PaidAmount))
}
