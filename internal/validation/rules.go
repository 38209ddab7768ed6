package validation

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
)

var one = decimal.NewFromInt(1)
var maxPct = decimal.NewFromInt(100)

// ValidateUpdateRules validates a harvest rules replacement.
//
// Constraints:
//   - minLossUsd, minLossPct, minTaxBenefit: Must be non-negative
//   - taxRate: Must be greater than 0 and less than 1
//   - minHoldingDays: Must be non-negative
//   - maxHarvestPct: Must be greater than 0 and at most 100
//   - washSaleWindowDays: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateRules(req request.UpdateRulesRequest) error {
	errors := make(map[string]string)

	if req.MinLossUSD.Sign() < 0 {
		errors["minLossUsd"] = "minLossUsd cannot be negative"
	}
	if req.MinLossPct.Sign() < 0 {
		errors["minLossPct"] = "minLossPct cannot be negative"
	}
	if req.MinTaxBenefit.Sign() < 0 {
		errors["minTaxBenefit"] = "minTaxBenefit cannot be negative"
	}
	if req.TaxRate.Sign() <= 0 || req.TaxRate.GreaterThanOrEqual(one) {
		errors["taxRate"] = "taxRate must be between 0 and 1"
	}
	if req.MinHoldingDays < 0 {
		errors["minHoldingDays"] = "minHoldingDays cannot be negative"
	}
	if req.MaxHarvestPct.Sign() <= 0 || req.MaxHarvestPct.GreaterThan(maxPct) {
		errors["maxHarvestPct"] = "maxHarvestPct must be between 0 and 100"
	}
	if req.WashSaleWindowDays <= 0 {
		errors["washSaleWindowDays"] = "washSaleWindowDays must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
