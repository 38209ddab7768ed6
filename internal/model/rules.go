package model

import "github.com/shopspring/decimal"

// RulesConfig holds the qualification thresholds for harvest candidates.
// It is treated as an immutable value: configuration changes replace the
// whole struct, never individual fields mid-evaluation.
type RulesConfig struct {
	MinLossUSD         decimal.Decimal `json:"minLossUsd"`
	MinLossPct         decimal.Decimal `json:"minLossPct"`
	MinTaxBenefit      decimal.Decimal `json:"minTaxBenefit"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	MinHoldingDays     int             `json:"minHoldingDays"`
	MaxHarvestPct      decimal.Decimal `json:"maxHarvestPct"`
	WashSaleWindowDays int             `json:"washSaleWindowDays"`
}

// DefaultRules returns the stock thresholds used until the operator
// overrides them.
func DefaultRules() RulesConfig {
	return RulesConfig{
		MinLossUSD:         decimal.NewFromInt(100),
		MinLossPct:         decimal.NewFromFloat(3.0),
		MinTaxBenefit:      decimal.NewFromInt(50),
		TaxRate:            decimal.NewFromFloat(0.35),
		MinHoldingDays:     7,
		MaxHarvestPct:      decimal.NewFromInt(10),
		WashSaleWindowDays: 30,
	}
}
