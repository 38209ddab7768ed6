package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionStatus is the outcome of one broker execution attempt. Pending
// means the order was accepted but did not fill immediately; the only
// recovery path for pending results is a later rescan.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// Valid reports whether s is a known execution status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusPending, ExecutionStatusFailed:
		return true
	}
	return false
}

// ExecutionResult reports what happened when a trade was sent to the
// broker. Broker failures land here as failed results with an error
// message; they are never raised past the execution boundary.
type ExecutionResult struct {
	Status       ExecutionStatus  `json:"status"`
	OrderID      string           `json:"orderId,omitempty"`
	Ticker       string           `json:"ticker"`
	Shares       decimal.Decimal  `json:"shares"`
	Price        decimal.Decimal  `json:"price"`
	TotalValue   decimal.Decimal  `json:"totalValue"`
	RealizedLoss *decimal.Decimal `json:"realizedLoss,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ExecutedAt   time.Time        `json:"executedAt"`
}

// BatchExecutionResult aggregates a sequential run over all approved
// trades. Errors holds at most the first five individual failure messages.
type BatchExecutionResult struct {
	Executed int      `json:"executed"`
	Failed   int      `json:"failed"`
	Pending  int      `json:"pending"`
	Errors   []string `json:"errors,omitempty"`
}

// ExecutionSummary reports harvesting totals for one tax year.
type ExecutionSummary struct {
	Year                 int             `json:"year"`
	TotalHarvestedLosses decimal.Decimal `json:"totalHarvestedLosses"`
	ShortTermLosses      decimal.Decimal `json:"shortTermLosses"`
	LongTermLosses       decimal.Decimal `json:"longTermLosses"`
	CompletedHarvests    int             `json:"completedHarvests"`
	PendingRebuys        int             `json:"pendingRebuys"`
}
