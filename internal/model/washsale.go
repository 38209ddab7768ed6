package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RebuyStatus tracks what happened after a wash sale window elapsed.
// Completed and skipped are terminal; there is no reverse transition.
type RebuyStatus string

const (
	RebuyStatusPending   RebuyStatus = "pending"
	RebuyStatusCompleted RebuyStatus = "completed"
	RebuyStatusSkipped   RebuyStatus = "skipped"
)

// Valid reports whether s is a known rebuy status.
func (s RebuyStatus) Valid() bool {
	switch s {
	case RebuyStatusPending, RebuyStatusCompleted, RebuyStatusSkipped:
		return true
	}
	return false
}

// WashSaleRestriction records a harvest sale and the window during which
// repurchasing the ticker would void the loss deduction. Created atomically
// with every harvest fill; mutated only by the terminal rebuy transitions;
// removed only by the age-based retention sweep.
type WashSaleRestriction struct {
	ID             string           `json:"id"`
	Ticker         string           `json:"ticker"`
	SharesSold     decimal.Decimal  `json:"sharesSold"`
	SalePrice      decimal.Decimal  `json:"salePrice"`
	SaleDate       time.Time        `json:"saleDate"`
	RestrictionEnd time.Time        `json:"restrictionEnd"`
	RebuyStatus    RebuyStatus      `json:"rebuyStatus"`
	RebuyDate      *time.Time       `json:"rebuyDate,omitempty"`
	RebuyPrice     *decimal.Decimal `json:"rebuyPrice,omitempty"`
}

// IsActiveAt reports whether the restriction still blocks repurchase on the
// given day: active through restriction_end inclusive, clear the day after.
func (r WashSaleRestriction) IsActiveAt(asOf time.Time) bool {
	return !DateOnly(asOf).After(DateOnly(r.RestrictionEnd))
}

// DaysRemainingAt returns how many days until the restriction clears, zero
// once it has.
func (r WashSaleRestriction) DaysRemainingAt(asOf time.Time) int {
	days := DaysBetween(asOf, r.RestrictionEnd)
	if days < 0 {
		return 0
	}
	return days
}

// ClearDate returns the first day the ticker may be repurchased.
func (r WashSaleRestriction) ClearDate() time.Time {
	return DateOnly(r.RestrictionEnd).AddDate(0, 0, 1)
}
