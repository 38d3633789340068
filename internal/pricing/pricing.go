package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/cavea/backoffice/internal/domain"
)

// Price arithmetic for the product form and the order detail view. All
// intermediate math runs on decimals; floats only appear at the domain
// boundary, rounded to cents.

// UnitPriceFromPack derives the per-bottle price from a pack price. A pack
// size of zero or less yields zero rather than dividing by it.
func UnitPriceFromPack(packPrice float64, packSize int) float64 {
	if packSize <= 0 {
		return 0
	}
	price := decimal.NewFromFloat(packPrice)
	size := decimal.NewFromInt(int64(packSize))
	return price.Div(size).Round(2).InexactFloat64()
}

// TotalAfterDiscount applies a flat per-unit discount amount.
func TotalAfterDiscount(unitPrice, unitDiscount float64) float64 {
	price := decimal.NewFromFloat(unitPrice)
	discount := decimal.NewFromFloat(unitDiscount)
	out := price.Sub(discount)
	if out.IsNegative() {
		return 0
	}
	return out.Round(2).InexactFloat64()
}

// LineTotal is the discounted unit price times quantity for one line item.
func LineTotal(it domain.LineItem) float64 {
	unit := decimal.NewFromFloat(TotalAfterDiscount(it.Product.UnitPrice, it.Product.UnitDiscount))
	qty := decimal.NewFromInt(int64(it.Quantity))
	return unit.Mul(qty).Round(2).InexactFloat64()
}

// OrderTotal sums the line totals.
func OrderTotal(items []domain.LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(LineTotal(it)))
	}
	return sum.Round(2).InexactFloat64()
}
