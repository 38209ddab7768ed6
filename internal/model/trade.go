package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType identifies where a queued trade came from.
type TradeType string

const (
	TradeTypeHarvest   TradeType = "harvest"
	TradeTypeIndexBuy  TradeType = "index_buy"
	TradeTypeRebalance TradeType = "rebalance"
)

// Valid reports whether t is a known trade type.
func (t TradeType) Valid() bool {
	switch t {
	case TradeTypeHarvest, TradeTypeIndexBuy, TradeTypeRebalance:
		return true
	}
	return false
}

// TradeAction is the direction of a queued trade.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
)

// Valid reports whether a is a known trade action.
func (a TradeAction) Valid() bool {
	switch a {
	case TradeActionBuy, TradeActionSell:
		return true
	}
	return false
}

// OrderSide converts the trade action to the broker's order side.
func (a TradeAction) OrderSide() OrderSide {
	if a == TradeActionBuy {
		return OrderSideBuy
	}
	return OrderSideSell
}

// TradeStatus is the lifecycle state of a queued trade. Transitions are
// one-directional: pending → approved|rejected, approved → executed|failed.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusApproved TradeStatus = "approved"
	TradeStatusRejected TradeStatus = "rejected"
	TradeStatusExecuted TradeStatus = "executed"
	TradeStatusFailed   TradeStatus = "failed"
)

// Valid reports whether s is a known trade status.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusApproved, TradeStatusRejected, TradeStatusExecuted, TradeStatusFailed:
		return true
	}
	return false
}

// QueuedTrade is a proposed trade awaiting approval and execution. Notional
// is fixed at insertion time (shares × price then, rounded to cents) and is
// never recomputed from a live quote afterwards.
type QueuedTrade struct {
	ID              string           `json:"id"`
	TradeType       TradeType        `json:"tradeType"`
	Action          TradeAction      `json:"action"`
	Symbol          string           `json:"symbol"`
	Name            string           `json:"name,omitempty"`
	Shares          decimal.Decimal  `json:"shares"`
	Notional        decimal.Decimal  `json:"notional"`
	CurrentPrice    decimal.Decimal  `json:"currentPrice"`
	Status          TradeStatus      `json:"status"`
	Reason          string           `json:"reason"`
	TaxImpact       *decimal.Decimal `json:"taxImpact,omitempty"`
	SwapTarget      string           `json:"swapTarget,omitempty"`
	WashSaleBlocked bool             `json:"washSaleBlocked"`
	CreatedAt       time.Time        `json:"createdAt"`
	ExecutedAt      *time.Time       `json:"executedAt,omitempty"`
	FillPrice       *decimal.Decimal `json:"fillPrice,omitempty"`
	SourceID        string           `json:"sourceId,omitempty"`
}

// QueueSummary counts queued trades per lifecycle state.
type QueueSummary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Executed int `json:"executed"`
	Failed   int `json:"failed"`
}
