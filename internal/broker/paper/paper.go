// Package paper implements an in-process simulated broker. It seeds a
// deterministic direct-indexed portfolio with a mix of winners and losers,
// fills every market order immediately at the current price, and keeps the
// whole account in memory. Used for development and as the default backend
// when no brokerage credentials are configured.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// Client is a simulated brokerage account.
type Client struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	positions map[string]model.Position
	orders    []model.Order
}

var _ broker.Broker = (*Client)(nil)

type seedPosition struct {
	ticker   string
	name     string
	shares   string
	avgCost  string
	price    string
	boughtAt int // days ago
}

// The seed book: enough losers past every default threshold to make scans
// interesting, plus winners that must never qualify.
var seedPositions = []seedPosition{
	{"AAPL", "Apple Inc.", "100", "150.00", "140.00", 120},
	{"MSFT", "Microsoft Corporation", "40", "310.00", "395.50", 200},
	{"GOOGL", "Alphabet Inc.", "50", "155.00", "140.00", 95},
	{"AMZN", "Amazon.com Inc.", "30", "185.00", "178.00", 80},
	{"NVDA", "NVIDIA Corporation", "25", "520.00", "480.00", 60},
	{"META", "Meta Platforms Inc.", "20", "350.00", "505.25", 150},
	{"TSLA", "Tesla Inc.", "15", "260.00", "248.00", 45},
	{"JPM", "JPMorgan Chase & Co.", "35", "155.00", "198.40", 210},
}

// NewClient creates a paper account holding the seed portfolio and the buy
// orders that established it.
func NewClient() *Client {
	c := &Client{
		cash:      decimal.NewFromInt(12500),
		positions: make(map[string]model.Position),
	}

	now := time.Now().UTC()
	for _, seed := range seedPositions {
		shares := decimal.RequireFromString(seed.shares)
		avgCost := decimal.RequireFromString(seed.avgCost)
		price := decimal.RequireFromString(seed.price)

		c.positions[seed.ticker] = model.Position{
			Ticker:          seed.ticker,
			Name:            seed.name,
			Shares:          shares,
			AvgCostPerShare: avgCost,
			CurrentPrice:    price,
		}

		filledAt := now.AddDate(0, 0, -seed.boughtAt)
		c.orders = append(c.orders, model.Order{
			ID:             uuid.New().String(),
			Symbol:         seed.ticker,
			Side:           model.OrderSideBuy,
			Qty:            shares,
			FilledQty:      shares,
			FilledAvgPrice: avgCost,
			Status:         model.OrderStatusFilled,
			SubmittedAt:    filledAt,
			FilledAt:       &filledAt,
		})
	}

	return c
}

// GetPositions returns the currently held positions.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	positions := make([]model.Position, 0, len(c.positions))
	for _, p := range c.positions {
		positions = append(positions, p)
	}

	return positions, nil
}

// GetOrderHistory returns orders submitted within the last `days` days,
// newest first.
func (c *Client) GetOrderHistory(ctx context.Context, days int) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	orders := []model.Order{}
	for i := len(c.orders) - 1; i >= 0; i-- {
		if c.orders[i].SubmittedAt.Before(cutoff) {
			continue
		}
		orders = append(orders, c.orders[i])
	}

	return orders, nil
}

// SubmitMarketOrder fills a market order immediately at the position's
// current price and adjusts the book.
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	if !qty.IsPositive() {
		return model.Order{}, fmt.Errorf("order quantity must be positive, got %s", qty)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	position, held := c.positions[symbol]

	var price decimal.Decimal
	switch side {
	case model.OrderSideSell:
		if !held {
			return model.Order{}, fmt.Errorf("no position in %s to sell", symbol)
		}
		if qty.GreaterThan(position.Shares) {
			return model.Order{}, fmt.Errorf("insufficient shares in %s: have %s, want %s", symbol, position.Shares, qty)
		}
		price = position.CurrentPrice
		position.Shares = position.Shares.Sub(qty)
		if position.Shares.IsZero() {
			delete(c.positions, symbol)
		} else {
			c.positions[symbol] = position
		}
		c.cash = c.cash.Add(qty.Mul(price))

	case model.OrderSideBuy:
		if held {
			price = position.CurrentPrice
			totalCost := position.Shares.Mul(position.AvgCostPerShare).Add(qty.Mul(price))
			position.Shares = position.Shares.Add(qty)
			position.AvgCostPerShare = totalCost.Div(position.Shares)
			c.positions[symbol] = position
		} else {
			// No live quote source for unheld symbols; open at a flat $100.
			price = decimal.NewFromInt(100)
			c.positions[symbol] = model.Position{
				Ticker:          symbol,
				Name:            symbol,
				Shares:          qty,
				AvgCostPerShare: price,
				CurrentPrice:    price,
			}
		}
		c.cash = c.cash.Sub(qty.Mul(price))

	default:
		return model.Order{}, fmt.Errorf("unknown order side %q", side)
	}

	now := time.Now().UTC()
	order := model.Order{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		Side:           side,
		Qty:            qty,
		FilledQty:      qty,
		FilledAvgPrice: price,
		Status:         model.OrderStatusFilled,
		SubmittedAt:    now,
		FilledAt:       &now,
	}
	c.orders = append(c.orders, order)

	return order, nil
}

// GetTotalValue returns account equity: cash plus the market value of all
// positions.
func (c *Client) GetTotalValue(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Decimal{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.cash
	for _, p := range c.positions {
		total = total.Add(p.MarketValue())
	}

	return total, nil
}
