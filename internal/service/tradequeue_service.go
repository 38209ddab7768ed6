package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// TradeQueueService holds proposed trades awaiting review. The queue is
// in-memory only: restarting the server clears it, and unexecuted proposals
// are expected to be regenerated from a fresh scan or rebalance plan rather
// than replayed against stale prices.
//
// Transition methods report success as a bool instead of an error; bulk
// operations count how many entries actually moved.
type TradeQueueService struct {
	mu     sync.Mutex
	trades map[string]*model.QueuedTrade
}

// NewTradeQueueService creates an empty trade queue.
func NewTradeQueueService() *TradeQueueService {
	return &TradeQueueService{
		trades: make(map[string]*model.QueuedTrade),
	}
}

// AddTrade inserts a pending trade. Notional is computed once from the
// shares and price given here, rounded to cents, and never recomputed from
// a live quote afterwards.
func (s *TradeQueueService) AddTrade(req request.AddTradeRequest) model.QueuedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade := &model.QueuedTrade{
		ID:              uuid.New().String(),
		TradeType:       model.TradeType(req.TradeType),
		Action:          model.TradeAction(req.Action),
		Symbol:          req.Symbol,
		Name:            req.Name,
		Shares:          req.Shares,
		Notional:        req.Shares.Mul(req.CurrentPrice).Round(2),
		CurrentPrice:    req.CurrentPrice,
		Status:          model.TradeStatusPending,
		Reason:          req.Reason,
		TaxImpact:       copyDecimalPtr(req.TaxImpact),
		SwapTarget:      req.SwapTarget,
		WashSaleBlocked: req.WashSaleBlocked,
		CreatedAt:       time.Now(),
		SourceID:        req.SourceID,
	}
	s.trades[trade.ID] = trade

	return cloneTrade(trade)
}

// GetTrade returns the trade with the given ID and whether it exists.
func (s *TradeQueueService) GetTrade(id string) (model.QueuedTrade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok {
		return model.QueuedTrade{}, false
	}

	return cloneTrade(trade), true
}

// GetAllTrades returns every queued trade, newest first.
func (s *TradeQueueService) GetAllTrades() []model.QueuedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(*model.QueuedTrade) bool { return true })
}

// GetTradesByType returns the queued trades of one type, newest first.
func (s *TradeQueueService) GetTradesByType(tradeType model.TradeType) []model.QueuedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(t *model.QueuedTrade) bool { return t.TradeType == tradeType })
}

// GetTradesByStatus returns the queued trades in one lifecycle state,
// newest first.
func (s *TradeQueueService) GetTradesByStatus(status model.TradeStatus) []model.QueuedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(t *model.QueuedTrade) bool { return t.Status == status })
}

// ApproveTrade moves a pending trade to approved. Returns false when the
// trade does not exist or is not pending.
func (s *TradeQueueService) ApproveTrade(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok || trade.Status != model.TradeStatusPending {
		return false
	}
	trade.Status = model.TradeStatusApproved

	return true
}

// RejectTrade moves a pending trade to rejected. Returns false when the
// trade does not exist or is not pending.
func (s *TradeQueueService) RejectTrade(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok || trade.Status != model.TradeStatusPending {
		return false
	}
	trade.Status = model.TradeStatusRejected

	return true
}

// ApproveAll approves every pending trade, optionally filtered to one trade
// type (empty means all), and returns how many moved.
func (s *TradeQueueService) ApproveAll(tradeType model.TradeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, trade := range s.trades {
		if trade.Status != model.TradeStatusPending {
			continue
		}
		if tradeType != "" && trade.TradeType != tradeType {
			continue
		}
		trade.Status = model.TradeStatusApproved
		count++
	}

	return count
}

// RejectAll rejects every pending trade, optionally filtered to one trade
// type (empty means all), and returns how many moved.
func (s *TradeQueueService) RejectAll(tradeType model.TradeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, trade := range s.trades {
		if trade.Status != model.TradeStatusPending {
			continue
		}
		if tradeType != "" && trade.TradeType != tradeType {
			continue
		}
		trade.Status = model.TradeStatusRejected
		count++
	}

	return count
}

// MarkExecuted records a fill against an approved trade. Returns false when
// the trade does not exist or is not approved.
func (s *TradeQueueService) MarkExecuted(id string, fillPrice decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok || trade.Status != model.TradeStatusApproved {
		return false
	}

	now := time.Now()
	trade.Status = model.TradeStatusExecuted
	trade.ExecutedAt = &now
	trade.FillPrice = &fillPrice

	return true
}

// MarkFailed moves a trade to failed from any state and appends the failure
// to its reason. Returns false only when the trade does not exist.
func (s *TradeQueueService) MarkFailed(id string, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok {
		return false
	}
	trade.Status = model.TradeStatusFailed
	trade.Reason = fmt.Sprintf("%s - Failed: %s", trade.Reason, errMsg)

	return true
}

// RemoveTrade deletes a trade from the queue. Returns false when the trade
// does not exist.
func (s *TradeQueueService) RemoveTrade(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[id]; !ok {
		return false
	}
	delete(s.trades, id)

	return true
}

// Clear empties the queue and returns how many trades were dropped.
func (s *TradeQueueService) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.trades)
	s.trades = make(map[string]*model.QueuedTrade)

	return removed
}

// GetSummary counts trades per lifecycle state.
func (s *TradeQueueService) GetSummary() model.QueueSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := model.QueueSummary{Total: len(s.trades)}
	for _, trade := range s.trades {
		switch trade.Status {
		case model.TradeStatusPending:
			summary.Pending++
		case model.TradeStatusApproved:
			summary.Approved++
		case model.TradeStatusRejected:
			summary.Rejected++
		case model.TradeStatusExecuted:
			summary.Executed++
		case model.TradeStatusFailed:
			summary.Failed++
		}
	}

	return summary
}

// TotalNotional sums the notional of trades in the given state, or of all
// trades when status is empty.
func (s *TradeQueueService) TotalNotional(status model.TradeStatus) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, trade := range s.trades {
		if status != "" && trade.Status != status {
			continue
		}
		total = total.Add(trade.Notional)
	}

	return total
}

// TotalTaxImpact sums the tax impact of trades in the given state, or of
// all trades when status is empty. Trades without an estimate contribute
// nothing.
func (s *TradeQueueService) TotalTaxImpact(status model.TradeStatus) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, trade := range s.trades {
		if status != "" && trade.Status != status {
			continue
		}
		if trade.TaxImpact != nil {
			total = total.Add(*trade.TaxImpact)
		}
	}

	return total
}

// collect returns copies of the trades matching the filter, newest first.
// Callers must hold s.mu.
func (s *TradeQueueService) collect(match func(*model.QueuedTrade) bool) []model.QueuedTrade {
	trades := []model.QueuedTrade{}
	for _, trade := range s.trades {
		if match(trade) {
			trades = append(trades, cloneTrade(trade))
		}
	}
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].CreatedAt.After(trades[j].CreatedAt)
		}
		return trades[i].ID < trades[j].ID
	})

	return trades
}

// cloneTrade copies a trade so callers can never mutate queue state through
// a returned value.
func cloneTrade(trade *model.QueuedTrade) model.QueuedTrade {
	clone := *trade
	clone.TaxImpact = copyDecimalPtr(trade.TaxImpact)
	clone.FillPrice = copyDecimalPtr(trade.FillPrice)
	if trade.ExecutedAt != nil {
		executedAt := *trade.ExecutedAt
		clone.ExecutedAt = &executedAt
	}

	return clone
}

func copyDecimalPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	value := *d
	return &value
}
