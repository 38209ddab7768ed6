package validation

import (
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
)

// ValidateUpdateConstituents validates an index composition replacement.
// The list must be non-empty, symbols must be unique, and every weight must
// be between 0 (exclusive) and 100 (inclusive).
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateConstituents(req request.UpdateConstituentsRequest) error {
	errors := make(map[string]string)

	if len(req.Constituents) == 0 {
		errors["constituents"] = "constituents cannot be empty"
	}

	seen := make(map[string]bool, len(req.Constituents))
	for i, constituent := range req.Constituents {
		field := fmt.Sprintf("constituents[%d]", i)

		if err := ValidateTicker(constituent.Symbol); err != nil {
			errors[field+".symbol"] = err.Error()
			continue
		}
		if seen[constituent.Symbol] {
			errors[field+".symbol"] = fmt.Sprintf("duplicate symbol: %s", constituent.Symbol)
		}
		seen[constituent.Symbol] = true

		if constituent.Weight.Sign() <= 0 || constituent.Weight.GreaterThan(maxPct) {
			errors[field+".weight"] = "weight must be between 0 and 100"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
