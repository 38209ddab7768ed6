package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// MockBroker is a mock implementation of broker.Broker for testing.
// It returns predefined positions, orders, and account value instead of
// talking to a real brokerage.
type MockBroker struct {
	// MockPositions is returned from GetPositions
	MockPositions []model.Position
	// MockOrders is returned from GetOrderHistory
	MockOrders []model.Order
	// MockTotalValue is returned from GetTotalValue
	MockTotalValue decimal.Decimal
	// MockError is the error to return from every method
	MockError error
	// SubmitFunc, when set, overrides the default fill behavior of
	// SubmitMarketOrder
	SubmitFunc func(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error)
	// SubmitCount tracks how many orders were submitted
	SubmitCount int
	// Submitted records every order request in submission order
	Submitted []SubmittedOrder
}

// SubmittedOrder is one recorded SubmitMarketOrder call.
type SubmittedOrder struct {
	Symbol string
	Qty    decimal.Decimal
	Side   model.OrderSide
}

var _ broker.Broker = (*MockBroker)(nil)

// NewMockBroker creates a mock broker holding one losing and one winning
// position, with buy history old enough to pass the default holding period.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		MockPositions: []model.Position{
			MakePosition("AAPL", "100", "150.00", "140.00"),
			MakePosition("MSFT", "40", "310.00", "395.50"),
		},
		MockOrders: []model.Order{
			MakeFilledBuy("AAPL", "100", "150.00", 120),
			MakeFilledBuy("MSFT", "40", "310.00", 200),
		},
		// Large enough that the default harvest budget never trims the seeds
		MockTotalValue: decimal.NewFromInt(200000),
	}
}

// GetPositions returns the configured positions.
func (m *MockBroker) GetPositions(_ context.Context) ([]model.Position, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	positions := make([]model.Position, len(m.MockPositions))
	copy(positions, m.MockPositions)
	return positions, nil
}

// GetOrderHistory returns the configured orders regardless of the window.
func (m *MockBroker) GetOrderHistory(_ context.Context, _ int) ([]model.Order, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	orders := make([]model.Order, len(m.MockOrders))
	copy(orders, m.MockOrders)
	return orders, nil
}

// SubmitMarketOrder records the request and fills it immediately at the
// position's current price, or at $100 for symbols not held. Set SubmitFunc
// to script rejections, partial states, or custom fills.
func (m *MockBroker) SubmitMarketOrder(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error) {
	m.SubmitCount++
	m.Submitted = append(m.Submitted, SubmittedOrder{Symbol: symbol, Qty: qty, Side: side})

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, symbol, qty, side)
	}
	if m.MockError != nil {
		return model.Order{}, m.MockError
	}

	price := decimal.NewFromInt(100)
	for _, p := range m.MockPositions {
		if p.Ticker == symbol {
			price = p.CurrentPrice
			break
		}
	}

	now := time.Now().UTC()
	return model.Order{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		Side:           side,
		Qty:            qty,
		FilledQty:      qty,
		FilledAvgPrice: price,
		Status:         model.OrderStatusFilled,
		SubmittedAt:    now,
		FilledAt:       &now,
	}, nil
}

// GetTotalValue returns the configured account equity.
func (m *MockBroker) GetTotalValue(_ context.Context) (decimal.Decimal, error) {
	if m.MockError != nil {
		return decimal.Decimal{}, m.MockError
	}
	return m.MockTotalValue, nil
}

// WithPositions configures the mock to return the specified positions.
func (m *MockBroker) WithPositions(positions ...model.Position) *MockBroker {
	m.MockPositions = positions
	return m
}

// WithOrders configures the mock to return the specified order history.
func (m *MockBroker) WithOrders(orders ...model.Order) *MockBroker {
	m.MockOrders = orders
	return m
}

// WithTotalValue configures the mock to return the specified account equity.
func (m *MockBroker) WithTotalValue(total decimal.Decimal) *MockBroker {
	m.MockTotalValue = total
	return m
}

// WithError configures the mock to return the specified error from every method.
func (m *MockBroker) WithError(err error) *MockBroker {
	m.MockError = err
	return m
}

// WithSubmitFunc configures custom order handling.
func (m *MockBroker) WithSubmitFunc(fn func(ctx context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error)) *MockBroker {
	m.SubmitFunc = fn
	return m
}

// WithSubmitError configures SubmitMarketOrder to fail while the read
// methods keep working.
func (m *MockBroker) WithSubmitError(err error) *MockBroker {
	m.SubmitFunc = func(context.Context, string, decimal.Decimal, model.OrderSide) (model.Order, error) {
		return model.Order{}, err
	}
	return m
}

// WithPendingFills configures SubmitMarketOrder to accept orders without
// filling them.
func (m *MockBroker) WithPendingFills() *MockBroker {
	m.SubmitFunc = func(_ context.Context, symbol string, qty decimal.Decimal, side model.OrderSide) (model.Order, error) {
		return model.Order{
			ID:          uuid.New().String(),
			Symbol:      symbol,
			Side:        side,
			Qty:         qty,
			Status:      model.OrderStatusPending,
			SubmittedAt: time.Now().UTC(),
		}, nil
	}
	return m
}

// MakePosition creates a position from decimal strings. Panics on malformed
// input, which in tests is always a typo worth failing loudly on.
func MakePosition(ticker, shares, avgCost, price string) model.Position {
	return model.Position{
		Ticker:          ticker,
		Name:            fmt.Sprintf("%s Test Co.", ticker),
		Shares:          decimal.RequireFromString(shares),
		AvgCostPerShare: decimal.RequireFromString(avgCost),
		CurrentPrice:    decimal.RequireFromString(price),
	}
}

// MakeFilledBuy creates a filled buy order placed daysAgo days in the past.
func MakeFilledBuy(ticker, shares, price string, daysAgo int) model.Order {
	filledAt := time.Now().UTC().AddDate(0, 0, -daysAgo)
	qty := decimal.RequireFromString(shares)
	return model.Order{
		ID:             uuid.New().String(),
		Symbol:         ticker,
		Side:           model.OrderSideBuy,
		Qty:            qty,
		FilledQty:      qty,
		FilledAvgPrice: decimal.RequireFromString(price),
		Status:         model.OrderStatusFilled,
		SubmittedAt:    filledAt,
		FilledAt:       &filledAt,
	}
}

// MakeFilledSell creates a filled sell order placed daysAgo days in the past.
func MakeFilledSell(ticker, shares, price string, daysAgo int) model.Order {
	order := MakeFilledBuy(ticker, shares, price, daysAgo)
	order.Side = model.OrderSideSell
	return order
}
