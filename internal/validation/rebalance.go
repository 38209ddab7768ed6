package validation

import (
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
)

// ValidateRebalancePlan validates a rebalance plan request. The drift
// threshold cannot be negative and the trade cap cannot be negative; a cap
// of zero means unlimited.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateRebalancePlan(req request.RebalancePlanRequest) error {
	errors := make(map[string]string)

	if req.ThresholdPct.Sign() < 0 {
		errors["thresholdPct"] = "thresholdPct cannot be negative"
	}
	if req.MaxTrades < 0 {
		errors["maxTrades"] = "maxTrades cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
