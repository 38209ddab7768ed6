package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
)

// WashSaleService tracks the 30-day restriction window that follows every
// harvest sale. A ticker may accumulate multiple restrictions over time;
// activity checks always consider all of them.
type WashSaleService struct {
	mu           sync.Mutex
	washSaleRepo *repository.WashSaleRepository
	rulesService *RulesService
}

// NewWashSaleService creates a new WashSaleService with the provided dependencies.
func NewWashSaleService(washSaleRepo *repository.WashSaleRepository, rulesService *RulesService) *WashSaleService {
	return &WashSaleService{
		washSaleRepo: washSaleRepo,
		rulesService: rulesService,
	}
}

// CreateRestriction records a restriction for a completed harvest sale. The
// restriction ends window+1 days after the sale date, so a rebuy is first
// allowed on the day after the window closes.
func (s *WashSaleService) CreateRestriction(ticker string, shares, salePrice decimal.Decimal, saleDate time.Time) (model.WashSaleRestriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.rulesService.GetRules()
	if err != nil {
		return model.WashSaleRestriction{}, err
	}

	sale := model.DateOnly(saleDate)
	restriction := model.WashSaleRestriction{
		ID:             uuid.New().String(),
		Ticker:         ticker,
		SharesSold:     shares,
		SalePrice:      salePrice,
		SaleDate:       sale,
		RestrictionEnd: sale.AddDate(0, 0, rules.WashSaleWindowDays+1),
		RebuyStatus:    model.RebuyStatusPending,
	}

	if err := s.washSaleRepo.Insert(restriction); err != nil {
		return model.WashSaleRestriction{}, fmt.Errorf("failed to create wash sale restriction: %w", err)
	}

	return restriction, nil
}

// GetRestriction returns a single restriction by ID.
func (s *WashSaleService) GetRestriction(id string) (model.WashSaleRestriction, error) {
	return s.washSaleRepo.GetByID(id)
}

// GetAllRestrictions returns every restriction on record, soonest
// restriction end first.
func (s *WashSaleService) GetAllRestrictions() ([]model.WashSaleRestriction, error) {
	return s.washSaleRepo.GetAll()
}

// GetActiveRestrictions returns the restrictions still in force on the
// given date, soonest restriction end first.
func (s *WashSaleService) GetActiveRestrictions(asOf time.Time) ([]model.WashSaleRestriction, error) {
	restrictions, err := s.washSaleRepo.GetAll()
	if err != nil {
		return nil, err
	}

	active := []model.WashSaleRestriction{}
	for _, restriction := range restrictions {
		if restriction.IsActiveAt(asOf) {
			active = append(active, restriction)
		}
	}

	return active, nil
}

// GetRestrictionsByTicker returns a ticker's restrictions, most recent sale
// first.
func (s *WashSaleService) GetRestrictionsByTicker(ticker string) ([]model.WashSaleRestriction, error) {
	return s.washSaleRepo.GetByTicker(ticker)
}

// IsRestricted reports whether the ticker has any restriction in force on
// the given date. Selling a restricted ticker for a further harvest is
// forbidden until the window clears.
func (s *WashSaleService) IsRestricted(ticker string, asOf time.Time) (bool, error) {
	restrictions, err := s.washSaleRepo.GetByTicker(ticker)
	if err != nil {
		return false, err
	}

	for _, restriction := range restrictions {
		if restriction.IsActiveAt(asOf) {
			return true, nil
		}
	}

	return false, nil
}

// HasRestrictionHistory reports whether the ticker has ever had a
// restriction, active or not. Buy recommendations treat any history as
// blocking, which deliberately errs on the side of flagging.
func (s *WashSaleService) HasRestrictionHistory(ticker string) (bool, error) {
	restrictions, err := s.washSaleRepo.GetByTicker(ticker)
	if err != nil {
		return false, err
	}

	return len(restrictions) > 0, nil
}

// WouldViolate reports whether buying the ticker on the given date falls
// inside the symmetric wash sale window of any recorded sale. Each
// restriction's window is derived from its own stored dates, so rule
// changes never reinterpret old sales.
func (s *WashSaleService) WouldViolate(ticker string, buyDate time.Time) (bool, error) {
	restrictions, err := s.washSaleRepo.GetByTicker(ticker)
	if err != nil {
		return false, err
	}

	buy := model.DateOnly(buyDate)
	for _, restriction := range restrictions {
		windowDays := model.DaysBetween(restriction.SaleDate, restriction.RestrictionEnd) - 1
		windowStart := restriction.SaleDate.AddDate(0, 0, -windowDays)
		windowEnd := restriction.SaleDate.AddDate(0, 0, windowDays)
		if !buy.Before(windowStart) && !buy.After(windowEnd) {
			return true, nil
		}
	}

	return false, nil
}

// GetPendingRebuys returns restrictions whose window has cleared but whose
// rebuy has been neither completed nor skipped.
func (s *WashSaleService) GetPendingRebuys(asOf time.Time) ([]model.WashSaleRestriction, error) {
	restrictions, err := s.washSaleRepo.GetAll()
	if err != nil {
		return nil, err
	}

	pending := []model.WashSaleRestriction{}
	for _, restriction := range restrictions {
		if restriction.RebuyStatus == model.RebuyStatusPending && !restriction.IsActiveAt(asOf) {
			pending = append(pending, restriction)
		}
	}

	return pending, nil
}

// MarkRebuyComplete records the rebuy fill against a restriction. The
// transition is terminal: a restriction already completed or skipped is
// rejected.
func (s *WashSaleService) MarkRebuyComplete(id string, rebuyPrice decimal.Decimal, rebuyDate time.Time) (model.WashSaleRestriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restriction, err := s.washSaleRepo.GetByID(id)
	if err != nil {
		return model.WashSaleRestriction{}, err
	}
	if restriction.RebuyStatus != model.RebuyStatusPending {
		return model.WashSaleRestriction{}, apperrors.ErrRebuyAlreadyResolved
	}

	date := model.DateOnly(rebuyDate)
	restriction.RebuyStatus = model.RebuyStatusCompleted
	restriction.RebuyDate = &date
	restriction.RebuyPrice = &rebuyPrice

	if err := s.washSaleRepo.Update(restriction); err != nil {
		return model.WashSaleRestriction{}, fmt.Errorf("failed to mark rebuy complete: %w", err)
	}

	return restriction, nil
}

// MarkRebuySkipped records the decision not to re-enter the position. The
// transition is terminal: a restriction already completed or skipped is
// rejected.
func (s *WashSaleService) MarkRebuySkipped(id string) (model.WashSaleRestriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restriction, err := s.washSaleRepo.GetByID(id)
	if err != nil {
		return model.WashSaleRestriction{}, err
	}
	if restriction.RebuyStatus != model.RebuyStatusPending {
		return model.WashSaleRestriction{}, apperrors.ErrRebuyAlreadyResolved
	}

	restriction.RebuyStatus = model.RebuyStatusSkipped
	restriction.RebuyDate = nil
	restriction.RebuyPrice = nil

	if err := s.washSaleRepo.Update(restriction); err != nil {
		return model.WashSaleRestriction{}, fmt.Errorf("failed to mark rebuy skipped: %w", err)
	}

	return restriction, nil
}

// GetClearDate returns the first day the ticker may be repurchased, or nil
// when no restriction is active on the given date. With multiple active
// restrictions the latest one governs.
func (s *WashSaleService) GetClearDate(ticker string, asOf time.Time) (*time.Time, error) {
	restrictions, err := s.washSaleRepo.GetByTicker(ticker)
	if err != nil {
		return nil, err
	}

	var clearDate *time.Time
	for _, restriction := range restrictions {
		if !restriction.IsActiveAt(asOf) {
			continue
		}
		candidate := restriction.ClearDate()
		if clearDate == nil || candidate.After(*clearDate) {
			clearDate = &candidate
		}
	}

	return clearDate, nil
}

// DaysUntilClear returns the number of days until the ticker's last active
// restriction clears, or nil when none is active.
func (s *WashSaleService) DaysUntilClear(ticker string, asOf time.Time) (*int, error) {
	clearDate, err := s.GetClearDate(ticker, asOf)
	if err != nil {
		return nil, err
	}
	if clearDate == nil {
		return nil, nil
	}

	days := model.DaysBetween(asOf, *clearDate)
	if days < 0 {
		days = 0
	}

	return &days, nil
}

// Cleanup deletes resolved restrictions whose sale date is more than
// daysOld days before asOf and returns the number removed. Pending rebuys
// are never deleted regardless of age.
func (s *WashSaleService) Cleanup(daysOld int, asOf time.Time) (int, error) {
	cutoff := model.DateOnly(asOf).AddDate(0, 0, -daysOld)
	return s.washSaleRepo.DeleteResolvedBefore(cutoff)
}
