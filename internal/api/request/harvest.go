package request

import "github.com/shopspring/decimal"

type QueueHarvestRequest struct {
	Ticker              string          `json:"ticker"`
	Shares              decimal.Decimal `json:"shares"`
	CurrentPrice        decimal.Decimal `json:"currentPrice"`
	CostBasis           decimal.Decimal `json:"costBasis"`
	UnrealizedLoss      decimal.Decimal `json:"unrealizedLoss"`
	EstimatedTaxBenefit decimal.Decimal `json:"estimatedTaxBenefit"`
}
