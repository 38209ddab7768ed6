package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary is the account-level view: live valuation plus the
// harvesting state attached to it. All monetary values are rounded to two
// decimal places.
type PortfolioSummary struct {
	TotalValue                  decimal.Decimal `json:"totalValue"`            // Account equity
	TotalCostBasis              decimal.Decimal `json:"totalCostBasis"`        // Sum of position cost bases
	UnrealizedGainLoss          decimal.Decimal `json:"unrealizedGainLoss"`    // Market value minus cost basis
	UnrealizedGainLossPct       decimal.Decimal `json:"unrealizedGainLossPct"` // As a percentage of cost basis
	YTDHarvestedLosses          decimal.Decimal `json:"ytdHarvestedLosses"`    // Negative: losses realized this year
	PendingHarvestOpportunities int             `json:"pendingHarvestOpportunities"`
	ActiveWashSaleRestrictions  int             `json:"activeWashSaleRestrictions"`
}

// TradeRecord is one historical fill, derived from broker order history.
// HarvestEventID links sells that executed a harvest queue item.
type TradeRecord struct {
	ID             string          `json:"id"`
	Ticker         string          `json:"ticker"`
	TradeType      TradeAction     `json:"tradeType"`
	Shares         decimal.Decimal `json:"shares"`
	PricePerShare  decimal.Decimal `json:"pricePerShare"`
	ExecutedAt     time.Time       `json:"executedAt"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	HarvestEventID string          `json:"harvestEventId,omitempty"`
}

// TradeFilters narrows a trade history query. Zero values mean "no filter".
type TradeFilters struct {
	Ticker      string
	TradeType   TradeAction
	StartDate   *time.Time
	EndDate     *time.Time
	HarvestOnly bool
}
