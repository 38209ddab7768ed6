package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// ExecutionService is the single gateway between review decisions and the
// broker. Nothing else in the system submits orders. Broker failures are
// converted into failed results at this boundary and never raised past it;
// eligibility failures (unknown ID, wrong state, active restriction) are
// errors raised before any order goes out.
type ExecutionService struct {
	mu              sync.Mutex
	brokerClient    broker.Broker
	washSaleService *WashSaleService
	harvestRepo     *repository.HarvestQueueRepository
	ledgerRepo      *repository.LossLedgerRepository
	tradeQueue      *TradeQueueService
}

// NewExecutionService creates a new ExecutionService with the provided dependencies.
func NewExecutionService(
	brokerClient broker.Broker,
	washSaleService *WashSaleService,
	harvestRepo *repository.HarvestQueueRepository,
	ledgerRepo *repository.LossLedgerRepository,
	tradeQueue *TradeQueueService,
) *ExecutionService {
	return &ExecutionService{
		brokerClient:    brokerClient,
		washSaleService: washSaleService,
		harvestRepo:     harvestRepo,
		ledgerRepo:      ledgerRepo,
		tradeQueue:      tradeQueue,
	}
}

// ExecuteHarvest sells an approved harvest queue item. On fill it books the
// realized loss into the ledger, creates the wash sale restriction, and
// marks the item executed in the same call. Executing a ticker that is
// still under an active restriction is rejected before the order goes out.
func (s *ExecutionService) ExecuteHarvest(ctx context.Context, id string) (model.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.harvestRepo.GetByID(id)
	if err != nil {
		return model.ExecutionResult{}, err
	}
	if item.Status != model.HarvestStatusApproved {
		return model.ExecutionResult{}, apperrors.ErrQueueItemNotApproved
	}

	restricted, err := s.washSaleService.IsRestricted(item.Ticker, time.Now())
	if err != nil {
		return model.ExecutionResult{}, err
	}
	if restricted {
		return model.ExecutionResult{}, apperrors.ErrTickerRestricted
	}

	order, err := s.brokerClient.SubmitMarketOrder(ctx, item.Ticker, item.Shares, model.OrderSideSell)
	if err != nil {
		return failedResult(item.Ticker, item.Shares, err), nil
	}
	if !order.Filled() {
		return pendingResult(order), nil
	}

	now := time.Now()
	proceeds := order.FilledQty.Mul(order.FilledAvgPrice)
	realized := proceeds.Sub(item.CostBasis).Round(2)

	if _, err := s.washSaleService.CreateRestriction(item.Ticker, order.FilledQty, order.FilledAvgPrice, now); err != nil {
		return model.ExecutionResult{}, err
	}
	if err := s.bookRealizedLoss(now.Year(), realized); err != nil {
		return model.ExecutionResult{}, err
	}

	item.Status = model.HarvestStatusExecuted
	item.ExecutedAt = &now
	if err := s.harvestRepo.Update(item); err != nil {
		return model.ExecutionResult{}, err
	}

	return model.ExecutionResult{
		Status:       model.ExecutionStatusSuccess,
		OrderID:      order.ID,
		Ticker:       item.Ticker,
		Shares:       order.FilledQty,
		Price:        order.FilledAvgPrice,
		TotalValue:   proceeds.Round(2),
		RealizedLoss: &realized,
		ExecutedAt:   now,
	}, nil
}

// bookRealizedLoss adds a realized loss to the year's ledger. Losses are
// accumulated as positive magnitudes under short-term; a harvest that
// somehow realized a gain still records the year but books nothing.
func (s *ExecutionService) bookRealizedLoss(year int, realized decimal.Decimal) error {
	ledger, err := s.ledgerRepo.GetYear(year)
	if errors.Is(err, apperrors.ErrLedgerYearNotFound) {
		ledger = model.LossLedgerYear{Year: year}
		err = nil
	}
	if err != nil {
		return err
	}

	if realized.Sign() < 0 {
		ledger.ShortTermLosses = ledger.ShortTermLosses.Add(realized.Abs())
	}
	if err := s.ledgerRepo.Upsert(ledger); err != nil {
		return fmt.Errorf("failed to record realized loss: %w", err)
	}

	return nil
}

// ExecuteRebuy repurchases the shares sold under a cleared restriction.
// The restriction must be past its window and its rebuy still pending.
func (s *ExecutionService) ExecuteRebuy(ctx context.Context, id string) (model.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restriction, err := s.washSaleService.GetRestriction(id)
	if err != nil {
		return model.ExecutionResult{}, err
	}

	now := time.Now()
	if restriction.IsActiveAt(now) {
		return model.ExecutionResult{}, apperrors.ErrRestrictionStillActive
	}
	if restriction.RebuyStatus != model.RebuyStatusPending {
		return model.ExecutionResult{}, apperrors.ErrRebuyAlreadyResolved
	}

	order, err := s.brokerClient.SubmitMarketOrder(ctx, restriction.Ticker, restriction.SharesSold, model.OrderSideBuy)
	if err != nil {
		return failedResult(restriction.Ticker, restriction.SharesSold, err), nil
	}
	if !order.Filled() {
		return pendingResult(order), nil
	}

	if _, err := s.washSaleService.MarkRebuyComplete(id, order.FilledAvgPrice, now); err != nil {
		return model.ExecutionResult{}, err
	}

	return model.ExecutionResult{
		Status:     model.ExecutionStatusSuccess,
		OrderID:    order.ID,
		Ticker:     restriction.Ticker,
		Shares:     order.FilledQty,
		Price:      order.FilledAvgPrice,
		TotalValue: order.FilledQty.Mul(order.FilledAvgPrice).Round(2),
		ExecutedAt: now,
	}, nil
}

// SkipRebuy resolves a restriction's rebuy without trading.
func (s *ExecutionService) SkipRebuy(id string) (model.WashSaleRestriction, error) {
	return s.washSaleService.MarkRebuySkipped(id)
}

// ExecuteQueuedTrade submits one approved trade from the review queue.
// Harvest bookkeeping does not happen here: queued trades move money, only
// ExecuteHarvest books losses and creates restrictions.
func (s *ExecutionService) ExecuteQueuedTrade(ctx context.Context, id string) (model.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.executeQueuedTradeLocked(ctx, id)
}

func (s *ExecutionService) executeQueuedTradeLocked(ctx context.Context, id string) (model.ExecutionResult, error) {
	trade, ok := s.tradeQueue.GetTrade(id)
	if !ok {
		return model.ExecutionResult{}, apperrors.ErrTradeNotFound
	}
	if trade.Status != model.TradeStatusApproved {
		return model.ExecutionResult{}, apperrors.ErrTradeNotApproved
	}

	order, err := s.brokerClient.SubmitMarketOrder(ctx, trade.Symbol, trade.Shares, trade.Action.OrderSide())
	if err != nil {
		s.tradeQueue.MarkFailed(id, err.Error())
		return failedResult(trade.Symbol, trade.Shares, err), nil
	}
	if !order.Filled() {
		// The trade stays approved; a later pass picks it up again.
		return pendingResult(order), nil
	}

	s.tradeQueue.MarkExecuted(id, order.FilledAvgPrice)

	return model.ExecutionResult{
		Status:     model.ExecutionStatusSuccess,
		OrderID:    order.ID,
		Ticker:     trade.Symbol,
		Shares:     order.FilledQty,
		Price:      order.FilledAvgPrice,
		TotalValue: order.FilledQty.Mul(order.FilledAvgPrice).Round(2),
		ExecutedAt: time.Now(),
	}, nil
}

// ExecuteApprovedTrades runs every approved trade strictly sequentially,
// oldest first, and reports aggregate counts. One trade failing never stops
// the batch; at most the first five failure messages are kept.
func (s *ExecutionService) ExecuteApprovedTrades(ctx context.Context) (model.BatchExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approved := s.tradeQueue.GetTradesByStatus(model.TradeStatusApproved)
	sort.Slice(approved, func(i, j int) bool {
		return approved[i].CreatedAt.Before(approved[j].CreatedAt)
	})

	batch := model.BatchExecutionResult{}
	for _, trade := range approved {
		result, err := s.executeQueuedTradeLocked(ctx, trade.ID)
		if err != nil {
			batch.Failed++
			if len(batch.Errors) < 5 {
				batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", trade.Symbol, err))
			}
			continue
		}

		switch result.Status {
		case model.ExecutionStatusSuccess:
			batch.Executed++
		case model.ExecutionStatusPending:
			batch.Pending++
		case model.ExecutionStatusFailed:
			batch.Failed++
			if len(batch.Errors) < 5 {
				batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %s", trade.Symbol, result.ErrorMessage))
			}
		}
	}

	return batch, nil
}

// GetExecutionSummary reports the year's harvesting totals. A year with no
// ledger entry summarizes to zeros rather than an error.
func (s *ExecutionService) GetExecutionSummary(year int) (model.ExecutionSummary, error) {
	summary := model.ExecutionSummary{Year: year}

	ledger, err := s.ledgerRepo.GetYear(year)
	if err != nil && !errors.Is(err, apperrors.ErrLedgerYearNotFound) {
		return model.ExecutionSummary{}, err
	}
	if err == nil {
		summary.ShortTermLosses = ledger.ShortTermLosses
		summary.LongTermLosses = ledger.LongTermLosses
		summary.TotalHarvestedLosses = ledger.Total()
	}

	executed, err := s.harvestRepo.GetByStatus(model.HarvestStatusExecuted)
	if err != nil {
		return model.ExecutionSummary{}, err
	}
	for _, item := range executed {
		if item.ExecutedAt != nil && item.ExecutedAt.Year() == year {
			summary.CompletedHarvests++
		}
	}

	pendingRebuys, err := s.washSaleService.GetPendingRebuys(time.Now())
	if err != nil {
		return model.ExecutionSummary{}, err
	}
	summary.PendingRebuys = len(pendingRebuys)

	return summary, nil
}

func failedResult(ticker string, shares decimal.Decimal, err error) model.ExecutionResult {
	return model.ExecutionResult{
		Status:       model.ExecutionStatusFailed,
		Ticker:       ticker,
		Shares:       shares,
		ErrorMessage: err.Error(),
		ExecutedAt:   time.Now(),
	}
}

func pendingResult(order model.Order) model.ExecutionResult {
	return model.ExecutionResult{
		Status:     model.ExecutionStatusPending,
		OrderID:    order.ID,
		Ticker:     order.Symbol,
		Shares:     order.Qty,
		ExecutedAt: time.Now(),
	}
}
