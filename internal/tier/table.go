// Package tier holds the cumulative-sales commission table.
package tier

import "github.com/shopspring/decimal"

// Tier maps a minimum cumulative sales amount to a commission rate and an
// order-count bonus. Tiers are kept sorted by MinSales descending; RateFor
// takes the first tier whose minimum is met, so brackets stay mutually
// exclusive by construction.
type Tier struct {
	MinSales    decimal.Decimal
	Rate        decimal.Decimal
	BonusOrders int
	BonusAmount decimal.Decimal
}

// MinSalesThreshold is the floor below which no commission accrues.
var MinSalesThreshold = decimal.NewFromInt(20000)

var table = []Tier{
	{MinSales: decimal.NewFromInt(180000), Rate: rate("0.04"), BonusOrders: 12, BonusAmount: decimal.NewFromInt(1500)},
	{MinSales: decimal.NewFromInt(100000), Rate: rate("0.03"), BonusOrders: 0, BonusAmount: decimal.Zero},
	{MinSales: decimal.NewFromInt(70000), Rate: rate("0.02"), BonusOrders: 8, BonusAmount: decimal.NewFromInt(800)},
	{MinSales: decimal.NewFromInt(50000), Rate: rate("0.02"), BonusOrders: 6, BonusAmount: decimal.NewFromInt(400)},
	{MinSales: decimal.NewFromInt(20000), Rate: rate("0.01"), BonusOrders: 3, BonusAmount: decimal.NewFromInt(100)},
}

// RateFor returns the commission rate for the given cumulative sales.
// Below the lowest tier the rate is zero.
func RateFor(cumulativeSales decimal.Decimal) decimal.Decimal {
	for _, t := range table {
		if cumulativeSales.GreaterThanOrEqual(t.MinSales) {
			return t.Rate
		}
	}
	return decimal.Zero
}

// OrderBonusFor returns the bonus for the session-wide order count: the
// highest bonus whose order threshold is met. Evaluated independently of
// the sales tier.
func OrderBonusFor(totalOrders int) decimal.Decimal {
	switch {
	case totalOrders >= 12:
		return decimal.NewFromInt(1500)
	case totalOrders >= 8:
		return decimal.NewFromInt(800)
	case totalOrders >= 6:
		return decimal.NewFromInt(400)
	case totalOrders >= 3:
		return decimal.NewFromInt(100)
	default:
		return decimal.Zero
	}
}

// Table returns a copy of the tier table, highest bracket first.
func Table() []Tier {
	out := make([]Tier, len(table))
	copy(out, table)
	return out
}

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
