package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HarvestStatus is the lifecycle state of a harvest queue item.
// Transitions are one-directional: pending → approved|rejected,
// approved → executed.
type HarvestStatus string

const (
	HarvestStatusPending  HarvestStatus = "pending"
	HarvestStatusApproved HarvestStatus = "approved"
	HarvestStatusRejected HarvestStatus = "rejected"
	HarvestStatusExecuted HarvestStatus = "executed"
)

// Valid reports whether s is a known harvest status.
func (s HarvestStatus) Valid() bool {
	switch s {
	case HarvestStatusPending, HarvestStatusApproved, HarvestStatusRejected, HarvestStatusExecuted:
		return true
	}
	return false
}

// HarvestOpportunity is one qualifying losing position produced by a scan.
// Regenerated on every scan and merged with any persisted queue state for
// the same ticker; never stored itself.
type HarvestOpportunity struct {
	Ticker              string          `json:"ticker"`
	Shares              decimal.Decimal `json:"shares"`
	CurrentPrice        decimal.Decimal `json:"currentPrice"`
	AvgCost             decimal.Decimal `json:"avgCost"`
	MarketValue         decimal.Decimal `json:"marketValue"`
	CostBasis           decimal.Decimal `json:"costBasis"`
	UnrealizedLoss      decimal.Decimal `json:"unrealizedLoss"`
	LossPct             decimal.Decimal `json:"lossPct"`
	EstimatedTaxBenefit decimal.Decimal `json:"estimatedTaxBenefit"`
	DaysHeld            *int            `json:"daysHeld,omitempty"`
	QueueStatus         *HarvestStatus  `json:"queueStatus,omitempty"`
	QueueID             string          `json:"queueId,omitempty"`
}

// HarvestQueueItem is a persisted harvest candidate awaiting approval and
// execution. Prices are snapshots from the scan that produced it; pending
// items left over from a previous day are pruned as stale.
type HarvestQueueItem struct {
	ID                  string          `json:"id"`
	Ticker              string          `json:"ticker"`
	Shares              decimal.Decimal `json:"shares"`
	CurrentPrice        decimal.Decimal `json:"currentPrice"`
	CostBasis           decimal.Decimal `json:"costBasis"`
	UnrealizedLoss      decimal.Decimal `json:"unrealizedLoss"`
	EstimatedTaxBenefit decimal.Decimal `json:"estimatedTaxBenefit"`
	Status              HarvestStatus   `json:"status"`
	CreatedAt           time.Time       `json:"createdAt"`
	ExecutedAt          *time.Time      `json:"executedAt,omitempty"`
}

// ScanResult is the outcome of one portfolio scan.
type ScanResult struct {
	Opportunities         []HarvestOpportunity `json:"opportunities"`
	TotalPotentialBenefit decimal.Decimal      `json:"totalPotentialBenefit"`
	PositionsScanned      int                  `json:"positionsScanned"`
	PositionsWithLoss     int                  `json:"positionsWithLoss"`
	PositionsRestricted   int                  `json:"positionsRestricted"`
	ScanTime              time.Time            `json:"scanTime"`
}
