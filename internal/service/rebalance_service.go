package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// defaultEntryPrice prices buy recommendations for symbols not yet held,
// where no live quote is available through the position feed.
var defaultEntryPrice = decimal.NewFromInt(100)

// RebalanceService turns allocation drift into prioritized trade
// recommendations, harvesting losses on the way where the wash sale ledger
// allows it. It only ever proposes; nothing here touches the broker.
type RebalanceService struct {
	portfolioService *PortfolioService
	washSaleService  *WashSaleService
	rulesService     *RulesService
}

// NewRebalanceService creates a new RebalanceService with the provided dependencies.
func NewRebalanceService(
	portfolioService *PortfolioService,
	washSaleService *WashSaleService,
	rulesService *RulesService,
) *RebalanceService {
	return &RebalanceService{
		portfolioService: portfolioService,
		washSaleService:  washSaleService,
		rulesService:     rulesService,
	}
}

// GenerateRebalancePlan compares held values against the given target
// values and recommends trades for every symbol drifted past thresholdPct.
// Recommendations come back priority-ascending (harvestable losses first,
// buys last) and truncated to maxTrades when positive.
func (s *RebalanceService) GenerateRebalancePlan(ctx context.Context, targets map[string]decimal.Decimal, thresholdPct decimal.Decimal, maxTrades int) (model.RebalancePlan, error) {
	positions, err := s.portfolioService.GetPositions(ctx)
	if err != nil {
		return model.RebalancePlan{}, err
	}
	rules, err := s.rulesService.GetRules()
	if err != nil {
		return model.RebalancePlan{}, err
	}

	held := make(map[string]model.Position, len(positions))
	for _, position := range positions {
		held[position.Ticker] = position
	}

	symbols := make([]string, 0, len(targets))
	for symbol := range targets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	today := time.Now()
	recommendations := []model.TradeRecommendation{}

	for _, symbol := range symbols {
		targetValue := targets[symbol]
		position, holding := held[symbol]

		currentValue := decimal.Zero
		if holding {
			currentValue = position.MarketValue()
		}

		difference := targetValue.Sub(currentValue)
		differencePct := decimal.Zero
		if targetValue.Sign() > 0 {
			differencePct = difference.Div(targetValue).Mul(hundred)
		}
		if differencePct.Abs().LessThan(thresholdPct) {
			continue
		}

		if difference.Sign() > 0 {
			rec, err := s.buyRecommendation(symbol, position, holding, difference, differencePct)
			if err != nil {
				return model.RebalancePlan{}, err
			}
			recommendations = append(recommendations, rec)
		} else if holding {
			// Overweight without a position means nothing to sell.
			rec := s.sellRecommendation(position, difference, differencePct, rules.TaxRate, today)
			recommendations = append(recommendations, rec)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority < recommendations[j].Priority
	})
	if maxTrades > 0 && len(recommendations) > maxTrades {
		recommendations = recommendations[:maxTrades]
	}

	return buildPlan(recommendations), nil
}

// buyRecommendation proposes buying the underweight difference. The buy is
// flagged when the symbol has any wash sale history at all: repurchasing a
// ticker sold at a loss within the window voids the deduction, so the
// recommendation errs toward flagging.
func (s *RebalanceService) buyRecommendation(symbol string, position model.Position, holding bool, difference, differencePct decimal.Decimal) (model.TradeRecommendation, error) {
	price := defaultEntryPrice
	name := symbol
	if holding {
		price = position.CurrentPrice
		name = position.Name
	}

	shares := decimal.Zero
	if price.Sign() > 0 {
		shares = difference.Div(price).Round(3)
	}

	blocked, err := s.washSaleService.HasRestrictionHistory(symbol)
	if err != nil {
		return model.TradeRecommendation{}, err
	}

	return model.TradeRecommendation{
		Symbol:          symbol,
		Name:            name,
		Action:          model.TradeActionBuy,
		Shares:          shares,
		CurrentPrice:    price,
		Notional:        difference.Round(2),
		Reason:          fmt.Sprintf("Underweight by %s%%", differencePct.Abs().StringFixed(1)),
		Priority:        100,
		WashSaleBlocked: blocked,
	}, nil
}

// sellRecommendation proposes selling the overweight difference, clipped to
// the shares actually held. Sells of losing positions carry the estimated
// tax impact and jump the priority queue; the block flag only looks at the
// forward restriction window on the position itself.
func (s *RebalanceService) sellRecommendation(position model.Position, difference, differencePct decimal.Decimal, taxRate decimal.Decimal, today time.Time) model.TradeRecommendation {
	shares := decimal.Zero
	if position.CurrentPrice.Sign() > 0 {
		shares = difference.Abs().Div(position.CurrentPrice).Round(3)
	}
	if shares.GreaterThan(position.Shares) {
		shares = position.Shares
	}
	sellValue := shares.Mul(position.CurrentPrice).Round(2)

	gainLoss := position.CurrentPrice.Sub(position.AvgCostPerShare).Mul(shares)
	taxImpact := gainLoss.Mul(taxRate).Round(2)

	reason := fmt.Sprintf("Overweight by %s%%", differencePct.Abs().StringFixed(1))
	var priority int
	if gainLoss.Sign() < 0 {
		reason = fmt.Sprintf("%s - harvest loss $%s", reason, gainLoss.Abs().StringFixed(2))
		priority = int(gainLoss.IntPart())
	} else {
		priority = 50 + int(gainLoss.Div(hundred).IntPart())
	}

	blocked := position.WashSaleUntil != nil && model.DateOnly(*position.WashSaleUntil).After(model.DateOnly(today))

	return model.TradeRecommendation{
		Symbol:          position.Ticker,
		Name:            position.Name,
		Action:          model.TradeActionSell,
		Shares:          shares,
		CurrentPrice:    position.CurrentPrice,
		Notional:        sellValue,
		Reason:          reason,
		TaxImpact:       &taxImpact,
		Priority:        priority,
		WashSaleBlocked: blocked,
	}
}

// buildPlan computes the plan aggregates. Blocked recommendations still
// count toward the totals; they are advice with a warning, not omissions.
func buildPlan(recommendations []model.TradeRecommendation) model.RebalancePlan {
	plan := model.RebalancePlan{Recommendations: recommendations}

	totalBuys := decimal.Zero
	totalSells := decimal.Zero
	savings := decimal.Zero
	for _, rec := range recommendations {
		if rec.Action == model.TradeActionBuy {
			totalBuys = totalBuys.Add(rec.Notional)
		} else {
			totalSells = totalSells.Add(rec.Notional)
		}
		if rec.TaxImpact != nil && rec.TaxImpact.Sign() < 0 {
			savings = savings.Add(rec.TaxImpact.Abs())
		}
		if rec.WashSaleBlocked {
			plan.BlockedTrades++
		}
	}

	plan.TotalBuys = totalBuys.Round(2)
	plan.TotalSells = totalSells.Round(2)
	plan.NetCashFlow = totalSells.Sub(totalBuys).Round(2)
	plan.EstimatedTaxSavings = savings.Round(2)

	return plan
}

// GetHarvestOpportunities returns full-liquidation sell recommendations for
// every position losing at least minLoss, biggest loss first.
func (s *RebalanceService) GetHarvestOpportunities(ctx context.Context, minLoss decimal.Decimal) ([]model.TradeRecommendation, error) {
	positions, err := s.portfolioService.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.rulesService.GetRules()
	if err != nil {
		return nil, err
	}

	today := time.Now()
	recommendations := []model.TradeRecommendation{}

	for _, position := range positions {
		gainLoss := position.UnrealizedGainLoss()
		if gainLoss.Sign() >= 0 || gainLoss.Abs().LessThan(minLoss) {
			continue
		}

		taxImpact := gainLoss.Mul(rules.TaxRate).Round(2)
		blocked := position.WashSaleUntil != nil && model.DateOnly(*position.WashSaleUntil).After(model.DateOnly(today))

		recommendations = append(recommendations, model.TradeRecommendation{
			Symbol:          position.Ticker,
			Name:            position.Name,
			Action:          model.TradeActionSell,
			Shares:          position.Shares,
			CurrentPrice:    position.CurrentPrice,
			Notional:        position.MarketValue().Round(2),
			Reason:          fmt.Sprintf("Tax-loss harvest - save $%s", taxImpact.Abs().StringFixed(2)),
			TaxImpact:       &taxImpact,
			Priority:        int(gainLoss.IntPart()),
			WashSaleBlocked: blocked,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority < recommendations[j].Priority
	})

	return recommendations, nil
}

// EstimateAnnualTaxSavings sums the tax benefit of every currently
// harvestable (unblocked) loss.
func (s *RebalanceService) EstimateAnnualTaxSavings(ctx context.Context) (decimal.Decimal, error) {
	opportunities, err := s.GetHarvestOpportunities(ctx, decimal.Zero)
	if err != nil {
		return decimal.Decimal{}, err
	}

	savings := decimal.Zero
	for _, opportunity := range opportunities {
		if opportunity.WashSaleBlocked || opportunity.TaxImpact == nil {
			continue
		}
		savings = savings.Add(opportunity.TaxImpact.Abs())
	}

	return savings.Round(2), nil
}
