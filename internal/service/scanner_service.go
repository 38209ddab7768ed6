package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// ScannerService finds harvest candidates in the live portfolio and owns
// the persisted harvest queue that review decisions flow through.
type ScannerService struct {
	mu              sync.Mutex
	brokerClient    broker.Broker
	harvestRepo     *repository.HarvestQueueRepository
	rulesService    *RulesService
	washSaleService *WashSaleService
	historyDays     int
}

// NewScannerService creates a new ScannerService with the provided dependencies.
// historyDays bounds how far back order history is fetched for holding-period
// checks.
func NewScannerService(
	brokerClient broker.Broker,
	harvestRepo *repository.HarvestQueueRepository,
	rulesService *RulesService,
	washSaleService *WashSaleService,
	historyDays int,
) *ScannerService {
	return &ScannerService{
		brokerClient:    brokerClient,
		harvestRepo:     harvestRepo,
		rulesService:    rulesService,
		washSaleService: washSaleService,
		historyDays:     historyDays,
	}
}

// Scan evaluates every position against the current rules and returns the
// qualifying opportunities, best tax benefit first, trimmed to the portfolio
// harvest budget. The scan never mutates the queue; persisting a candidate
// is a separate, explicit step.
func (s *ScannerService) Scan(ctx context.Context) (model.ScanResult, error) {
	rules, err := s.rulesService.GetRules()
	if err != nil {
		return model.ScanResult{}, err
	}
	evaluator := NewHarvestEvaluator(rules)

	var (
		positions  []model.Position
		history    []model.Order
		totalValue decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = s.brokerClient.GetPositions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.brokerClient.GetOrderHistory(gctx, s.historyDays)
		return err
	})
	g.Go(func() error {
		var err error
		totalValue, err = s.brokerClient.GetTotalValue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ScanResult{}, fmt.Errorf("failed to fetch portfolio data: %w", err)
	}

	now := time.Now()

	activeRestrictions, err := s.washSaleService.GetActiveRestrictions(now)
	if err != nil {
		return model.ScanResult{}, err
	}
	restricted := make(map[string]bool, len(activeRestrictions))
	for _, restriction := range activeRestrictions {
		restricted[restriction.Ticker] = true
	}

	// Oldest-first iteration makes the most recent queue item win the merge.
	queueItems, err := s.harvestRepo.GetAll()
	if err != nil {
		return model.ScanResult{}, err
	}
	latestByTicker := make(map[string]model.HarvestQueueItem, len(queueItems))
	for _, item := range queueItems {
		latestByTicker[item.Ticker] = item
	}

	result := model.ScanResult{
		Opportunities:    []model.HarvestOpportunity{},
		PositionsScanned: len(positions),
		ScanTime:         now,
	}

	for _, position := range positions {
		gainLoss := position.UnrealizedGainLoss()
		if gainLoss.Sign() >= 0 {
			continue
		}
		result.PositionsWithLoss++

		if restricted[position.Ticker] {
			result.PositionsRestricted++
			continue
		}
		if !evaluator.Qualifies(position, false, history, now) {
			continue
		}

		opportunity := model.HarvestOpportunity{
			Ticker:              position.Ticker,
			Shares:              position.Shares,
			CurrentPrice:        position.CurrentPrice,
			AvgCost:             position.AvgCostPerShare,
			MarketValue:         position.MarketValue(),
			CostBasis:           position.CostBasis(),
			UnrealizedLoss:      gainLoss,
			LossPct:             evaluator.LossPct(position),
			EstimatedTaxBenefit: evaluator.TaxBenefit(gainLoss),
			DaysHeld:            evaluator.HoldingDays(position.Ticker, history, now),
		}
		if item, ok := latestByTicker[position.Ticker]; ok {
			status := item.Status
			opportunity.QueueStatus = &status
			opportunity.QueueID = item.ID
		}

		result.Opportunities = append(result.Opportunities, opportunity)
	}

	sort.Slice(result.Opportunities, func(i, j int) bool {
		a, b := result.Opportunities[i], result.Opportunities[j]
		if !a.EstimatedTaxBenefit.Equal(b.EstimatedTaxBenefit) {
			return a.EstimatedTaxBenefit.GreaterThan(b.EstimatedTaxBenefit)
		}
		return a.Ticker < b.Ticker
	})

	result.Opportunities = applyHarvestBudget(result.Opportunities, totalValue, rules.MaxHarvestPct)

	for _, opportunity := range result.Opportunities {
		result.TotalPotentialBenefit = result.TotalPotentialBenefit.Add(opportunity.EstimatedTaxBenefit)
	}
	result.TotalPotentialBenefit = result.TotalPotentialBenefit.Round(2)

	return result, nil
}

// applyHarvestBudget trims the benefit-ordered opportunity list so that the
// combined market value stays within maxPct of the portfolio. Packing is
// greedy: the first candidate that would overflow the budget ends the list,
// even if a smaller one further down would still fit.
func applyHarvestBudget(opportunities []model.HarvestOpportunity, totalValue, maxPct decimal.Decimal) []model.HarvestOpportunity {
	if totalValue.Sign() <= 0 {
		return opportunities
	}

	maxValue := totalValue.Mul(maxPct).Div(hundred)
	kept := []model.HarvestOpportunity{}
	cumulative := decimal.Zero
	for _, opportunity := range opportunities {
		next := cumulative.Add(opportunity.MarketValue)
		if next.GreaterThan(maxValue) {
			break
		}
		cumulative = next
		kept = append(kept, opportunity)
	}

	return kept
}

// AddToQueue persists a scan opportunity as a pending queue item.
func (s *ScannerService) AddToQueue(req request.QueueHarvestRequest) (model.HarvestQueueItem, error) {
	item := model.HarvestQueueItem{
		ID:                  uuid.New().String(),
		Ticker:              req.Ticker,
		Shares:              req.Shares,
		CurrentPrice:        req.CurrentPrice,
		CostBasis:           req.CostBasis,
		UnrealizedLoss:      req.UnrealizedLoss,
		EstimatedTaxBenefit: req.EstimatedTaxBenefit,
		Status:              model.HarvestStatusPending,
		CreatedAt:           time.Now(),
	}

	if err := s.harvestRepo.Insert(item); err != nil {
		return model.HarvestQueueItem{}, fmt.Errorf("failed to queue harvest: %w", err)
	}

	return item, nil
}

// GetQueue returns every harvest queue item, oldest first.
func (s *ScannerService) GetQueue() ([]model.HarvestQueueItem, error) {
	return s.harvestRepo.GetAll()
}

// GetQueueByStatus returns the queue items in one lifecycle state, oldest
// first.
func (s *ScannerService) GetQueueByStatus(status model.HarvestStatus) ([]model.HarvestQueueItem, error) {
	return s.harvestRepo.GetByStatus(status)
}

// GetQueueItem returns one harvest queue item by ID.
func (s *ScannerService) GetQueueItem(id string) (model.HarvestQueueItem, error) {
	return s.harvestRepo.GetByID(id)
}

// GetPendingHarvests returns the queue items awaiting review.
func (s *ScannerService) GetPendingHarvests() ([]model.HarvestQueueItem, error) {
	return s.harvestRepo.GetByStatus(model.HarvestStatusPending)
}

// GetApprovedHarvests returns the queue items cleared for execution.
func (s *ScannerService) GetApprovedHarvests() ([]model.HarvestQueueItem, error) {
	return s.harvestRepo.GetByStatus(model.HarvestStatusApproved)
}

// ApproveHarvest moves a pending queue item to approved. Only pending items
// may be approved; anything else is an invalid-state error.
func (s *ScannerService) ApproveHarvest(id string) (model.HarvestQueueItem, error) {
	return s.transitionQueueItem(id, model.HarvestStatusApproved)
}

// RejectHarvest moves a pending queue item to rejected. Only pending items
// may be rejected; anything else is an invalid-state error.
func (s *ScannerService) RejectHarvest(id string) (model.HarvestQueueItem, error) {
	return s.transitionQueueItem(id, model.HarvestStatusRejected)
}

func (s *ScannerService) transitionQueueItem(id string, to model.HarvestStatus) (model.HarvestQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.harvestRepo.GetByID(id)
	if err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.Status != model.HarvestStatusPending {
		return model.HarvestQueueItem{}, apperrors.ErrQueueItemNotPending
	}

	item.Status = to
	if err := s.harvestRepo.Update(item); err != nil {
		return model.HarvestQueueItem{}, err
	}

	return item, nil
}

// ClearExpiredPending removes pending queue items created before today.
// Their prices come from an earlier session and are stale; a fresh scan
// regenerates anything still worth harvesting. Returns the number removed.
func (s *ScannerService) ClearExpiredPending() (int, error) {
	cutoff := model.DateOnly(time.Now())
	return s.harvestRepo.DeletePendingBefore(cutoff)
}
