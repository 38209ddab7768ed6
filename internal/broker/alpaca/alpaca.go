// Package alpaca adapts the Alpaca trading API to the Broker capability.
// Only the thin mapping lives here; order placement policy, wash sale
// bookkeeping, and loss accounting belong to the services that consume it.
package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/config"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// Client wraps the Alpaca trade client.
type Client struct {
	tradeClient *alpaca.Client
}

var _ broker.Broker = (*Client)(nil)

// NewClient creates an Alpaca-backed broker from the given configuration.
// Credentials come from the environment via config; nothing is stored.
func NewClient(cfg config.BrokerConfig) *Client {
	return &Client{
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaAPISecret,
			BaseURL:   cfg.AlpacaBaseURL,
		}),
	}
}

// GetPositions returns all open positions in the account.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alpacaPositions, err := c.tradeClient.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	positions := make([]model.Position, 0, len(alpacaPositions))
	for _, p := range alpacaPositions {
		// The SDK reports live quote fields as pointers
		currentPrice := decimal.Zero
		if p.CurrentPrice != nil {
			currentPrice = *p.CurrentPrice
		}

		positions = append(positions, model.Position{
			Ticker:          p.Symbol,
			Name:            p.Symbol,
			Shares:          p.Qty,
			AvgCostPerShare: p.AvgEntryPrice,
			CurrentPrice:    currentPrice,
		})
	}

	return positions, nil
}

// GetOrderHistory returns orders created within the last `days` days,
// newest first.
func (c *Client) GetOrderHistory(ctx context.Context, days int) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alpacaOrders, err := c.tradeClient.GetOrders(alpaca.GetOrdersRequest{
		Status: "all",
		Limit:  500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order history: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	orders := []model.Order{}
	for i := range alpacaOrders {
		if alpacaOrders[i].CreatedAt.Before(cutoff) {
			continue
		}
		orders = append(orders, mapOrder(&alpacaOrders[i]))
	}

	return orders, nil
}

// SubmitMarketOrder places a day market order.
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}

	order, err := c.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         &qty,
		Side:        alpaca.Side(side),
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to place %s order for %s: %w", side, symbol, err)
	}

	return mapOrder(order), nil
}

// GetTotalValue returns the account's equity.
func (c *Client) GetTotalValue(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Decimal{}, err
	}

	account, err := c.tradeClient.GetAccount()
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	return account.Equity, nil
}

func mapOrder(o *alpaca.Order) model.Order {
	order := model.Order{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        model.OrderSide(o.Side),
		FilledQty:   o.FilledQty,
		Status:      mapStatus(o.Status),
		SubmittedAt: o.CreatedAt,
		FilledAt:    o.FilledAt,
	}

	if o.Qty != nil {
		order.Qty = *o.Qty
	}
	if o.FilledAvgPrice != nil {
		order.FilledAvgPrice = *o.FilledAvgPrice
	}

	return order
}

func mapStatus(status string) model.OrderStatus {
	switch status {
	case "filled":
		return model.OrderStatusFilled
	case "canceled", "expired":
		return model.OrderStatusCanceled
	case "rejected":
		return model.OrderStatusRejected
	default:
		return model.OrderStatusPending
	}
}
