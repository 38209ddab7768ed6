package request

import "github.com/shopspring/decimal"

type UpdateRulesRequest struct {
	MinLossUSD         decimal.Decimal `json:"minLossUsd"`
	MinLossPct         decimal.Decimal `json:"minLossPct"`
	MinTaxBenefit      decimal.Decimal `json:"minTaxBenefit"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	MinHoldingDays     int             `json:"minHoldingDays"`
	MaxHarvestPct      decimal.Decimal `json:"maxHarvestPct"`
	WashSaleWindowDays int             `json:"washSaleWindowDays"`
}
