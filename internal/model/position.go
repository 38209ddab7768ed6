package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a holding as reported by the broker. Read-only from this
// system's perspective; derived values are computed, never stored.
// WashSaleUntil is enriched from the wash sale ledger before the position
// reaches the rebalance engine; nil when the ticker is unrestricted.
type Position struct {
	Ticker          string
	Name            string
	Shares          decimal.Decimal
	AvgCostPerShare decimal.Decimal
	CurrentPrice    decimal.Decimal
	WashSaleUntil   *time.Time
}

// MarketValue returns shares × current price.
func (p Position) MarketValue() decimal.Decimal {
	return p.Shares.Mul(p.CurrentPrice)
}

// CostBasis returns shares × average cost per share.
func (p Position) CostBasis() decimal.Decimal {
	return p.Shares.Mul(p.AvgCostPerShare)
}

// UnrealizedGainLoss returns market value minus cost basis. Negative for
// losing positions.
func (p Position) UnrealizedGainLoss() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// UnrealizedGainLossPct returns the gain/loss as a percentage of cost
// basis, rounded to two decimal places. Zero when the cost basis is zero.
func (p Position) UnrealizedGainLossPct() decimal.Decimal {
	basis := p.CostBasis()
	if basis.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedGainLoss().Div(basis).Mul(decimal.NewFromInt(100)).Round(2)
}
