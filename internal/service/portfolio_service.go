package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// PortfolioService presents the live brokerage account enriched with the
// harvesting state this system tracks alongside it.
type PortfolioService struct {
	brokerClient    broker.Broker
	washSaleService *WashSaleService
	harvestRepo     *repository.HarvestQueueRepository
	ledgerRepo      *repository.LossLedgerRepository
	historyDays     int
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
// historyDays bounds how far back trade history queries reach by default.
func NewPortfolioService(
	brokerClient broker.Broker,
	washSaleService *WashSaleService,
	harvestRepo *repository.HarvestQueueRepository,
	ledgerRepo *repository.LossLedgerRepository,
	historyDays int,
) *PortfolioService {
	return &PortfolioService{
		brokerClient:    brokerClient,
		washSaleService: washSaleService,
		harvestRepo:     harvestRepo,
		ledgerRepo:      ledgerRepo,
		historyDays:     historyDays,
	}
}

// GetPositions returns the current holdings, largest market value first,
// with WashSaleUntil set on tickers that have an active restriction.
func (s *PortfolioService) GetPositions(ctx context.Context) ([]model.Position, error) {
	positions, err := s.brokerClient.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	restrictions, err := s.washSaleService.GetActiveRestrictions(time.Now())
	if err != nil {
		return nil, err
	}

	// With multiple active restrictions on a ticker the latest end governs.
	restrictionEnds := make(map[string]time.Time, len(restrictions))
	for _, restriction := range restrictions {
		if end, ok := restrictionEnds[restriction.Ticker]; !ok || restriction.RestrictionEnd.After(end) {
			restrictionEnds[restriction.Ticker] = restriction.RestrictionEnd
		}
	}
	for i := range positions {
		if end, ok := restrictionEnds[positions[i].Ticker]; ok {
			until := end
			positions[i].WashSaleUntil = &until
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i].MarketValue(), positions[j].MarketValue()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return positions[i].Ticker < positions[j].Ticker
	})

	return positions, nil
}

// GetPosition returns the holding for one ticker.
func (s *PortfolioService) GetPosition(ctx context.Context, ticker string) (model.Position, error) {
	positions, err := s.GetPositions(ctx)
	if err != nil {
		return model.Position{}, err
	}

	for _, position := range positions {
		if position.Ticker == ticker {
			return position, nil
		}
	}

	return model.Position{}, apperrors.ErrPositionNotFound
}

// GetSummary returns the account-level view: equity, aggregate cost basis
// and unrealized P&L, plus this year's harvested losses and the open
// harvesting workload.
func (s *PortfolioService) GetSummary(ctx context.Context) (model.PortfolioSummary, error) {
	totalValue, err := s.brokerClient.GetTotalValue(ctx)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("failed to fetch account value: %w", err)
	}
	positions, err := s.brokerClient.GetPositions(ctx)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("failed to fetch positions: %w", err)
	}

	totalCostBasis := decimal.Zero
	unrealized := decimal.Zero
	for _, position := range positions {
		totalCostBasis = totalCostBasis.Add(position.CostBasis())
		unrealized = unrealized.Add(position.UnrealizedGainLoss())
	}

	unrealizedPct := decimal.Zero
	if totalCostBasis.Sign() > 0 {
		unrealizedPct = unrealized.Div(totalCostBasis).Mul(hundred).Round(2)
	}

	now := time.Now()

	// Ledger losses are stored as positive magnitudes; the summary reports
	// them as the negative P&L they represent.
	ytdHarvested := decimal.Zero
	ledger, err := s.ledgerRepo.GetYear(now.Year())
	if err != nil && !errors.Is(err, apperrors.ErrLedgerYearNotFound) {
		return model.PortfolioSummary{}, err
	}
	if err == nil {
		ytdHarvested = ledger.Total().Neg()
	}

	pending, err := s.harvestRepo.CountByStatus(model.HarvestStatusPending)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	active, err := s.washSaleService.GetActiveRestrictions(now)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	return model.PortfolioSummary{
		TotalValue:                  totalValue.Round(2),
		TotalCostBasis:              totalCostBasis.Round(2),
		UnrealizedGainLoss:          unrealized.Round(2),
		UnrealizedGainLossPct:       unrealizedPct,
		YTDHarvestedLosses:          ytdHarvested.Round(2),
		PendingHarvestOpportunities: pending,
		ActiveWashSaleRestrictions:  len(active),
	}, nil
}

// GetTradeHistory returns filled orders as trade records, newest first.
// Sells that executed a harvest queue item on the same day carry that
// item's ID. days <= 0 falls back to the configured history window.
func (s *PortfolioService) GetTradeHistory(ctx context.Context, filters model.TradeFilters, days int) ([]model.TradeRecord, error) {
	if days <= 0 {
		days = s.historyDays
	}

	orders, err := s.brokerClient.GetOrderHistory(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order history: %w", err)
	}

	executed, err := s.harvestRepo.GetByStatus(model.HarvestStatusExecuted)
	if err != nil {
		return nil, err
	}
	harvestByTickerDay := make(map[string]string, len(executed))
	for _, item := range executed {
		if item.ExecutedAt == nil {
			continue
		}
		key := item.Ticker + "|" + item.ExecutedAt.Format("2006-01-02")
		harvestByTickerDay[key] = item.ID
	}

	records := []model.TradeRecord{}
	for _, order := range orders {
		if !order.Filled() || order.FilledAt == nil {
			continue
		}

		record := model.TradeRecord{
			ID:            order.ID,
			Ticker:        order.Symbol,
			TradeType:     tradeActionFromSide(order.Side),
			Shares:        order.FilledQty,
			PricePerShare: order.FilledAvgPrice,
			ExecutedAt:    *order.FilledAt,
			TotalValue:    order.FilledQty.Mul(order.FilledAvgPrice).Round(2),
		}
		if order.Side == model.OrderSideSell {
			key := order.Symbol + "|" + order.FilledAt.Format("2006-01-02")
			record.HarvestEventID = harvestByTickerDay[key]
		}

		if !matchTradeFilters(record, filters) {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ExecutedAt.Equal(records[j].ExecutedAt) {
			return records[i].ExecutedAt.After(records[j].ExecutedAt)
		}
		return records[i].ID < records[j].ID
	})

	return records, nil
}

func tradeActionFromSide(side model.OrderSide) model.TradeAction {
	if side == model.OrderSideBuy {
		return model.TradeActionBuy
	}
	return model.TradeActionSell
}

func matchTradeFilters(record model.TradeRecord, filters model.TradeFilters) bool {
	if filters.Ticker != "" && record.Ticker != filters.Ticker {
		return false
	}
	if filters.TradeType != "" && record.TradeType != filters.TradeType {
		return false
	}
	if filters.StartDate != nil && model.DateOnly(record.ExecutedAt).Before(model.DateOnly(*filters.StartDate)) {
		return false
	}
	if filters.EndDate != nil && model.DateOnly(record.ExecutedAt).After(model.DateOnly(*filters.EndDate)) {
		return false
	}
	if filters.HarvestOnly && record.HarvestEventID == "" {
		return false
	}
	return true
}
