package model

import "github.com/shopspring/decimal"

// TradeRecommendation is one proposed rebalance trade. Priority orders
// execution: loss-harvest sells first (int of the loss, most negative
// first), then gain sells (50 + gain/100), then buys (always 100).
type TradeRecommendation struct {
	Symbol          string           `json:"symbol"`
	Name            string           `json:"name,omitempty"`
	Action          TradeAction      `json:"action"`
	Shares          decimal.Decimal  `json:"shares"`
	CurrentPrice    decimal.Decimal  `json:"currentPrice"`
	Notional        decimal.Decimal  `json:"notional"`
	Reason          string           `json:"reason"`
	TaxImpact       *decimal.Decimal `json:"taxImpact,omitempty"`
	Priority        int              `json:"priority"`
	WashSaleBlocked bool             `json:"washSaleBlocked"`
}

// RebalancePlan is a full set of recommendations toward the target
// allocation plus plan-level aggregates.
type RebalancePlan struct {
	Recommendations     []TradeRecommendation `json:"recommendations"`
	TotalBuys           decimal.Decimal       `json:"totalBuys"`
	TotalSells          decimal.Decimal       `json:"totalSells"`
	NetCashFlow         decimal.Decimal       `json:"netCashFlow"`
	EstimatedTaxSavings decimal.Decimal       `json:"estimatedTaxSavings"`
	BlockedTrades       int                   `json:"blockedTrades"`
}
