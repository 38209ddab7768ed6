package request

import "github.com/shopspring/decimal"

type RebalancePlanRequest struct {
	ThresholdPct decimal.Decimal `json:"thresholdPct"`
	MaxTrades    int             `json:"maxTrades"`
}
