package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of a broker order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Valid reports whether s is a known order side.
func (s OrderSide) Valid() bool {
	switch s {
	case OrderSideBuy, OrderSideSell:
		return true
	}
	return false
}

// OrderStatus is the broker-reported lifecycle state of an order. Only
// "filled" carries fill data this system acts on; everything else is
// treated as not-yet-final.
type OrderStatus string

const (
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
)

// Order is a broker order as seen through the Broker capability.
type Order struct {
	ID             string
	Symbol         string
	Side           OrderSide
	Qty            decimal.Decimal
	FilledQty      decimal.Decimal
	FilledAvgPrice decimal.Decimal
	Status         OrderStatus
	SubmittedAt    time.Time
	FilledAt       *time.Time
}

// Filled reports whether the order completed with fill data.
func (o Order) Filled() bool {
	return o.Status == OrderStatusFilled
}
