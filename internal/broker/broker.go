package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// Broker is the brokerage capability this system consumes: live positions,
// recent order history, market order submission, and account value. The
// execution coordinator is the only component allowed to call
// SubmitMarketOrder.
type Broker interface {
	// GetPositions returns all currently held positions.
	GetPositions(ctx context.Context) ([]model.Position, error)

	// GetOrderHistory returns orders from the last `days` days, newest first.
	GetOrderHistory(ctx context.Context, days int) ([]model.Order, error)

	// SubmitMarketOrder places a market order and returns the broker's view
	// of it, which may or may not be filled yet.
	SubmitMarketOrder(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error)

	// GetTotalValue returns total account equity.
	GetTotalValue(ctx context.Context) (decimal.Decimal, error)
}
