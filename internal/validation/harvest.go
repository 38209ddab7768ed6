package validation

import (
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
)

// ValidateQueueHarvest validates a request to persist a scan opportunity
// into the harvest queue.
//
// Required fields:
//   - ticker: Must be a plausible ticker symbol
//   - shares: Must be positive
//   - currentPrice: Must be positive
//   - costBasis: Must be positive
//   - unrealizedLoss: Must be negative; only losses are harvested
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateQueueHarvest(req request.QueueHarvestRequest) error {
	errors := make(map[string]string)

	if err := ValidateTicker(req.Ticker); err != nil {
		errors["ticker"] = err.Error()
	}
	if req.Shares.Sign() <= 0 {
		errors["shares"] = "shares must be positive"
	}
	if req.CurrentPrice.Sign() <= 0 {
		errors["currentPrice"] = "currentPrice must be positive"
	}
	if req.CostBasis.Sign() <= 0 {
		errors["costBasis"] = "costBasis must be positive"
	}
	if req.UnrealizedLoss.Sign() >= 0 {
		errors["unrealizedLoss"] = "unrealizedLoss must be negative"
	}
	if req.EstimatedTaxBenefit.Sign() < 0 {
		errors["estimatedTaxBenefit"] = "estimatedTaxBenefit cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
