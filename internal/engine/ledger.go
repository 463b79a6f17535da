package engine

import "github.com/shopspring/decimal"

// Budget ledger: pure purse arithmetic. The only writes are the two-field
// sale commit and its exact inverse, applied by Apply at commit time.

func Remaining(t Team) decimal.Decimal {
	return t.TotalBudget.Sub(t.Spent)
}

// Reserve is the amount held back so the team can still fill its mandatory
// remaining squad slots after the current purchase, one base price per slot.
func Reserve(t Team, basePrice decimal.Decimal) decimal.Decimal {
	needed := t.MinSquadSize - t.PlayersCount - 1
	if needed <= 0 {
		return decimal.Zero
	}
	return basePrice.Mul(decimal.NewFromInt(int64(needed)))
}

// MaxBid is the most the team may legally bid right now. The floor at base
// price keeps an under-funded team able to buy minimum-price players; the
// cap at Remaining keeps spent <= total_budget absolute. A full squad bids
// nothing.
func MaxBid(t Team, basePrice decimal.Decimal) decimal.Decimal {
	if t.MaxSquadSize > 0 && t.PlayersCount >= t.MaxSquadSize {
		return decimal.Zero
	}
	remaining := Remaining(t)
	max := remaining.Sub(Reserve(t, basePrice))
	if max.LessThan(basePrice) {
		max = basePrice
	}
	if max.GreaterThan(remaining) {
		max = remaining
	}
	return max
}

func commitSale(t *Team, price decimal.Decimal) {
	t.Spent = t.Spent.Add(price)
	t.PlayersCount++
}

func reverseSale(t *Team, price decimal.Decimal) {
	t.Spent = t.Spent.Sub(price)
	t.PlayersCount--
}
