package billing

import (
	"github.com/shopspring/decimal"
)

// Line is a quantity / unit price pair.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals is the computed money summary of a document.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// MoneyPlaces is the number of decimal places kept on the final total.
const MoneyPlaces = 2

// LineTotal returns quantity x unitPrice. Negative inputs pass through.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// DocumentTotals sums the line totals and applies tax and discount.
// Intermediate values stay exact; only Total is rounded.
func DocumentTotals(items []Line, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it.Quantity, it.UnitPrice))
	}
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax).Sub(discount).Round(MoneyPlaces),
	}
}
