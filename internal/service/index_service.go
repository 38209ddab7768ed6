package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// IndexService manages the tracked index composition and derives the
// per-symbol target values the rebalance engine steers toward.
type IndexService struct {
	indexRepo    *repository.IndexRepository
	brokerClient broker.Broker
}

// NewIndexService creates a new IndexService with the provided dependencies.
func NewIndexService(indexRepo *repository.IndexRepository, brokerClient broker.Broker) *IndexService {
	return &IndexService{
		indexRepo:    indexRepo,
		brokerClient: brokerClient,
	}
}

// GetConstituents returns the tracked index members, heaviest weight first.
func (s *IndexService) GetConstituents() ([]model.IndexConstituent, error) {
	return s.indexRepo.GetAll()
}

// ReplaceConstituents swaps the entire index composition in one
// transaction. Weights are stored at four decimal places.
func (s *IndexService) ReplaceConstituents(req request.UpdateConstituentsRequest) ([]model.IndexConstituent, error) {
	constituents := make([]model.IndexConstituent, 0, len(req.Constituents))
	for _, input := range req.Constituents {
		constituents = append(constituents, model.IndexConstituent{
			Symbol: input.Symbol,
			Name:   input.Name,
			Weight: input.Weight.Round(4),
			Sector: input.Sector,
		})
	}

	if err := s.indexRepo.ReplaceAll(constituents); err != nil {
		return nil, fmt.Errorf("failed to replace index constituents: %w", err)
	}

	return s.indexRepo.GetAll()
}

// GetTargetAllocations sizes every constituent's target value against the
// current account equity and reports the drift from what is actually held,
// largest absolute drift first.
func (s *IndexService) GetTargetAllocations(ctx context.Context) ([]model.TargetAllocation, error) {
	constituents, err := s.indexRepo.GetAll()
	if err != nil {
		return nil, err
	}
	totalValue, err := s.brokerClient.GetTotalValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account value: %w", err)
	}
	positions, err := s.brokerClient.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	heldValue := make(map[string]decimal.Decimal, len(positions))
	for _, position := range positions {
		heldValue[position.Ticker] = position.MarketValue()
	}

	allocations := make([]model.TargetAllocation, 0, len(constituents))
	for _, constituent := range constituents {
		targetValue := totalValue.Mul(constituent.Weight).Div(hundred).Round(2)
		currentValue := heldValue[constituent.Symbol]
		difference := targetValue.Sub(currentValue)

		differencePct := decimal.Zero
		if targetValue.Sign() > 0 {
			differencePct = difference.Div(targetValue).Mul(hundred).Round(2)
		}

		allocations = append(allocations, model.TargetAllocation{
			Symbol:        constituent.Symbol,
			Name:          constituent.Name,
			TargetWeight:  constituent.Weight,
			TargetValue:   targetValue,
			CurrentValue:  currentValue.Round(2),
			Difference:    difference.Round(2),
			DifferencePct: differencePct,
		})
	}

	sort.Slice(allocations, func(i, j int) bool {
		a, b := allocations[i].Difference.Abs(), allocations[j].Difference.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return allocations[i].Symbol < allocations[j].Symbol
	})

	return allocations, nil
}

// TargetValues returns the per-symbol target values as the rebalance
// engine consumes them.
func (s *IndexService) TargetValues(ctx context.Context) (map[string]decimal.Decimal, error) {
	allocations, err := s.GetTargetAllocations(ctx)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]decimal.Decimal, len(allocations))
	for _, allocation := range allocations {
		targets[allocation.Symbol] = allocation.TargetValue
	}

	return targets, nil
}

// GetSectorSummary aggregates constituent weights by sector, heaviest
// sector first.
func (s *IndexService) GetSectorSummary() ([]model.SectorSummary, error) {
	constituents, err := s.indexRepo.GetAll()
	if err != nil {
		return nil, err
	}

	bySector := map[string]*model.SectorSummary{}
	for _, constituent := range constituents {
		sector := constituent.Sector
		if sector == "" {
			sector = "Unknown"
		}
		summary, ok := bySector[sector]
		if !ok {
			summary = &model.SectorSummary{Sector: sector}
			bySector[sector] = summary
		}
		summary.Weight = summary.Weight.Add(constituent.Weight)
		summary.Count++
	}

	summaries := make([]model.SectorSummary, 0, len(bySector))
	for _, summary := range bySector {
		summary.Weight = summary.Weight.Round(4)
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].Weight.Equal(summaries[j].Weight) {
			return summaries[i].Weight.GreaterThan(summaries[j].Weight)
		}
		return summaries[i].Sector < summaries[j].Sector
	})

	return summaries, nil
}

// GetTopHoldings returns the n heaviest constituents.
func (s *IndexService) GetTopHoldings(n int) ([]model.IndexConstituent, error) {
	constituents, err := s.indexRepo.GetAll()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(constituents) {
		n = len(constituents)
	}

	return constituents[:n], nil
}
