package validation

import (
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// ValidateAddTrade validates a request to queue a trade for review.
//
// Required fields:
//   - tradeType: Must be one of: harvest, index_buy, rebalance
//   - action: Must be one of: buy, sell
//   - symbol: Must be a plausible ticker symbol
//   - shares: Must be positive
//   - currentPrice: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateAddTrade(req request.AddTradeRequest) error {
	errors := make(map[string]string)

	if !model.TradeType(req.TradeType).Valid() {
		errors["tradeType"] = fmt.Sprintf("invalid tradeType: %s", req.TradeType)
	}
	if !model.TradeAction(req.Action).Valid() {
		errors["action"] = fmt.Sprintf("invalid action: %s", req.Action)
	}
	if err := ValidateTicker(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}
	if req.Shares.Sign() <= 0 {
		errors["shares"] = "shares must be positive"
	}
	if req.CurrentPrice.Sign() <= 0 {
		errors["currentPrice"] = "currentPrice must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateBulkTrade validates the optional trade type filter on bulk
// approve/reject requests. An empty filter means every pending trade.
func ValidateBulkTrade(req request.BulkTradeRequest) error {
	if req.TradeType != "" && !model.TradeType(req.TradeType).Valid() {
		return &Error{Fields: map[string]string{
			"tradeType": fmt.Sprintf("invalid tradeType: %s", req.TradeType),
		}}
	}

	return nil
}
