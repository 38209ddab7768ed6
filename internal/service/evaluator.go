package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

var hundred = decimal.NewFromInt(100)

// HarvestEvaluator scores a single position against a fixed rules snapshot.
// The snapshot is taken at construction, so a concurrent rules update never
// changes thresholds halfway through a scan.
type HarvestEvaluator struct {
	rules model.RulesConfig
}

// NewHarvestEvaluator creates an evaluator bound to the given rules snapshot.
func NewHarvestEvaluator(rules model.RulesConfig) *HarvestEvaluator {
	return &HarvestEvaluator{rules: rules}
}

// LossPct returns the unrealized loss as a positive percentage of cost
// basis, rounded to two decimals. Positions with a gain or a zero cost
// basis report zero.
func (e *HarvestEvaluator) LossPct(position model.Position) decimal.Decimal {
	gainLoss := position.UnrealizedGainLoss()
	costBasis := position.CostBasis()
	if gainLoss.Sign() >= 0 || costBasis.IsZero() {
		return decimal.Zero
	}

	return gainLoss.Abs().Div(costBasis).Mul(hundred).Round(2)
}

// TaxBenefit estimates the deduction value of realizing the given loss,
// rounded to cents. The sign of the input is ignored.
func (e *HarvestEvaluator) TaxBenefit(loss decimal.Decimal) decimal.Decimal {
	return loss.Abs().Mul(e.rules.TaxRate).Round(2)
}

// MeetsLossThreshold reports whether the position's loss clears both the
// absolute dollar floor and the percentage floor. Failing either excludes
// the position.
func (e *HarvestEvaluator) MeetsLossThreshold(position model.Position) bool {
	gainLoss := position.UnrealizedGainLoss()
	if gainLoss.Sign() >= 0 {
		return false
	}

	return gainLoss.Abs().GreaterThanOrEqual(e.rules.MinLossUSD) &&
		e.LossPct(position).GreaterThanOrEqual(e.rules.MinLossPct)
}

// MeetsTaxBenefitThreshold reports whether harvesting the position would
// yield at least the configured minimum tax benefit.
func (e *HarvestEvaluator) MeetsTaxBenefitThreshold(position model.Position) bool {
	gainLoss := position.UnrealizedGainLoss()
	if gainLoss.Sign() >= 0 {
		return false
	}

	return e.TaxBenefit(gainLoss).GreaterThanOrEqual(e.rules.MinTaxBenefit)
}

// HoldingDays returns the number of days since the most recent filled buy
// of the ticker, or nil when the order history contains none.
func (e *HarvestEvaluator) HoldingDays(ticker string, history []model.Order, asOf time.Time) *int {
	var lastBuy *time.Time
	for i := range history {
		order := history[i]
		if order.Symbol != ticker || order.Side != model.OrderSideBuy {
			continue
		}
		if !order.Filled() || order.FilledAt == nil {
			continue
		}
		if lastBuy == nil || order.FilledAt.After(*lastBuy) {
			lastBuy = order.FilledAt
		}
	}
	if lastBuy == nil {
		return nil
	}

	days := model.DaysBetween(*lastBuy, asOf)
	return &days
}

// MeetsHoldingPeriod reports whether the position has been held long enough
// to harvest. Missing history is treated permissively: a position whose
// entry the broker no longer reports is never blocked on holding period.
func (e *HarvestEvaluator) MeetsHoldingPeriod(ticker string, history []model.Order, asOf time.Time) bool {
	days := e.HoldingDays(ticker, history, asOf)
	if days == nil {
		return true
	}

	return *days >= e.rules.MinHoldingDays
}

// Qualifies reports whether the position passes every harvest gate: not
// wash-sale restricted, loss thresholds, tax benefit threshold, and the
// minimum holding period.
func (e *HarvestEvaluator) Qualifies(position model.Position, restricted bool, history []model.Order, asOf time.Time) bool {
	if restricted {
		return false
	}
	if !e.MeetsLossThreshold(position) {
		return false
	}
	if !e.MeetsTaxBenefitThreshold(position) {
		return false
	}

	return e.MeetsHoldingPeriod(position.Ticker, history, asOf)
}
