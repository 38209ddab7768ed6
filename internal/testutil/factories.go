package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// RestrictionBuilder provides a fluent interface for creating test wash
// sale restrictions.
//
// Example usage:
//
//	// Simple creation with defaults (active restriction, sold 5 days ago)
//	restriction := testutil.NewRestriction().Build(t, db)
//
//	// Customized restriction
//	restriction := testutil.NewRestriction().
//	    WithTicker("GOOGL").
//	    SoldDaysAgo(40).
//	    Completed("142.00", time.Now()).
//	    Build(t, db)
type RestrictionBuilder struct {
	ID             string
	Ticker         string
	SharesSold     decimal.Decimal
	SalePrice      decimal.Decimal
	SaleDate       time.Time
	RestrictionEnd time.Time
	RebuyStatus    model.RebuyStatus
	RebuyDate      *time.Time
	RebuyPrice     *decimal.Decimal
}

// NewRestriction creates a RestrictionBuilder with sensible defaults:
// 100 shares of AAPL sold five days ago under the default 30-day window,
// rebuy still pending.
func NewRestriction() *RestrictionBuilder {
	b := &RestrictionBuilder{
		ID:          MakeID(),
		Ticker:      "AAPL",
		SharesSold:  decimal.NewFromInt(100),
		SalePrice:   decimal.RequireFromString("140.00"),
		RebuyStatus: model.RebuyStatusPending,
	}
	return b.SoldDaysAgo(5)
}

// WithID sets a custom ID.
func (b *RestrictionBuilder) WithID(id string) *RestrictionBuilder {
	b.ID = id
	return b
}

// WithTicker sets a custom ticker.
func (b *RestrictionBuilder) WithTicker(ticker string) *RestrictionBuilder {
	b.Ticker = ticker
	return b
}

// WithShares sets the shares sold from a decimal string.
func (b *RestrictionBuilder) WithShares(shares string) *RestrictionBuilder {
	b.SharesSold = decimal.RequireFromString(shares)
	return b
}

// WithSalePrice sets the sale price from a decimal string.
func (b *RestrictionBuilder) WithSalePrice(price string) *RestrictionBuilder {
	b.SalePrice = decimal.RequireFromString(price)
	return b
}

// WithSaleDate sets the sale date and recomputes the restriction end under
// the default 30-day window.
func (b *RestrictionBuilder) WithSaleDate(saleDate time.Time) *RestrictionBuilder {
	b.SaleDate = model.DateOnly(saleDate)
	b.RestrictionEnd = b.SaleDate.AddDate(0, 0, model.DefaultRules().WashSaleWindowDays+1)
	return b
}

// SoldDaysAgo sets the sale date relative to today.
func (b *RestrictionBuilder) SoldDaysAgo(days int) *RestrictionBuilder {
	return b.WithSaleDate(time.Now().UTC().AddDate(0, 0, -days))
}

// WithWindow overrides the wash sale window length, recomputing the
// restriction end from the current sale date.
func (b *RestrictionBuilder) WithWindow(days int) *RestrictionBuilder {
	b.RestrictionEnd = b.SaleDate.AddDate(0, 0, days+1)
	return b
}

// Completed marks the rebuy as completed at the given price and date.
func (b *RestrictionBuilder) Completed(price string, date time.Time) *RestrictionBuilder {
	p := decimal.RequireFromString(price)
	d := model.DateOnly(date)
	b.RebuyStatus = model.RebuyStatusCompleted
	b.RebuyPrice = &p
	b.RebuyDate = &d
	return b
}

// Skipped marks the rebuy as skipped.
func (b *RestrictionBuilder) Skipped() *RestrictionBuilder {
	b.RebuyStatus = model.RebuyStatusSkipped
	b.RebuyDate = nil
	b.RebuyPrice = nil
	return b
}

// Build creates the restriction in the database and returns it.
func (b *RestrictionBuilder) Build(t *testing.T, db *sql.DB) model.WashSaleRestriction {
	t.Helper()

	query := `
		INSERT INTO wash_sale_restrictions
			(id, ticker, shares_sold, sale_price, sale_date, restriction_end, rebuy_status, rebuy_date, rebuy_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var rebuyDate, rebuyPrice any
	if b.RebuyDate != nil {
		rebuyDate = b.RebuyDate.Format("2006-01-02")
	}
	if b.RebuyPrice != nil {
		rebuyPrice = b.RebuyPrice.String()
	}

	_, err := db.Exec(query,
		b.ID,
		b.Ticker,
		b.SharesSold.String(),
		b.SalePrice.String(),
		b.SaleDate.Format("2006-01-02"),
		b.RestrictionEnd.Format("2006-01-02"),
		string(b.RebuyStatus),
		rebuyDate,
		rebuyPrice,
	)
	if err != nil {
		t.Fatalf("Failed to create test restriction: %v", err)
	}

	return model.WashSaleRestriction{
		ID:             b.ID,
		Ticker:         b.Ticker,
		SharesSold:     b.SharesSold,
		SalePrice:      b.SalePrice,
		SaleDate:       b.SaleDate,
		RestrictionEnd: b.RestrictionEnd,
		RebuyStatus:    b.RebuyStatus,
		RebuyDate:      b.RebuyDate,
		RebuyPrice:     b.RebuyPrice,
	}
}

// QueueItemBuilder provides a fluent interface for creating test harvest
// queue items.
//
// Example usage:
//
//	item := testutil.NewQueueItem().
//	    WithTicker("GOOGL").
//	    Approved().
//	    Build(t, db)
type QueueItemBuilder struct {
	ID                  string
	Ticker              string
	Shares              decimal.Decimal
	CurrentPrice        decimal.Decimal
	CostBasis           decimal.Decimal
	UnrealizedLoss      decimal.Decimal
	EstimatedTaxBenefit decimal.Decimal
	Status              model.HarvestStatus
	CreatedAt           time.Time
	ExecutedAt          *time.Time
}

// NewQueueItem creates a QueueItemBuilder with sensible defaults: 100
// shares of AAPL bought at 150, now at 140, a $1000 loss worth a $350
// benefit at the default tax rate, still pending.
func NewQueueItem() *QueueItemBuilder {
	return &QueueItemBuilder{
		ID:                  MakeID(),
		Ticker:              "AAPL",
		Shares:              decimal.NewFromInt(100),
		CurrentPrice:        decimal.RequireFromString("140.00"),
		CostBasis:           decimal.RequireFromString("15000.00"),
		UnrealizedLoss:      decimal.RequireFromString("-1000.00"),
		EstimatedTaxBenefit: decimal.RequireFromString("350.00"),
		Status:              model.HarvestStatusPending,
		CreatedAt:           time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *QueueItemBuilder) WithID(id string) *QueueItemBuilder {
	b.ID = id
	return b
}

// WithTicker sets a custom ticker.
func (b *QueueItemBuilder) WithTicker(ticker string) *QueueItemBuilder {
	b.Ticker = ticker
	return b
}

// WithShares sets the share count from a decimal string.
func (b *QueueItemBuilder) WithShares(shares string) *QueueItemBuilder {
	b.Shares = decimal.RequireFromString(shares)
	return b
}

// WithPrices sets current price and cost basis from decimal strings and
// recomputes the unrealized loss.
func (b *QueueItemBuilder) WithPrices(currentPrice, costBasis string) *QueueItemBuilder {
	b.CurrentPrice = decimal.RequireFromString(currentPrice)
	b.CostBasis = decimal.RequireFromString(costBasis)
	b.UnrealizedLoss = b.Shares.Mul(b.CurrentPrice).Sub(b.CostBasis)
	return b
}

// WithBenefit sets the estimated tax benefit from a decimal string.
func (b *QueueItemBuilder) WithBenefit(benefit string) *QueueItemBuilder {
	b.EstimatedTaxBenefit = decimal.RequireFromString(benefit)
	return b
}

// WithStatus sets the lifecycle status.
func (b *QueueItemBuilder) WithStatus(status model.HarvestStatus) *QueueItemBuilder {
	b.Status = status
	return b
}

// Approved marks the item approved.
func (b *QueueItemBuilder) Approved() *QueueItemBuilder {
	b.Status = model.HarvestStatusApproved
	return b
}

// Executed marks the item executed at the given time.
func (b *QueueItemBuilder) Executed(at time.Time) *QueueItemBuilder {
	b.Status = model.HarvestStatusExecuted
	at = at.UTC()
	b.ExecutedAt = &at
	return b
}

// CreatedDaysAgo backdates the item's creation time.
func (b *QueueItemBuilder) CreatedDaysAgo(days int) *QueueItemBuilder {
	b.CreatedAt = time.Now().UTC().AddDate(0, 0, -days)
	return b
}

// Build creates the queue item in the database and returns it.
func (b *QueueItemBuilder) Build(t *testing.T, db *sql.DB) model.HarvestQueueItem {
	t.Helper()

	query := `
		INSERT INTO harvest_queue_items
			(id, ticker, shares, current_price, cost_basis, unrealized_loss, estimated_tax_benefit, status, created_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var executedAt any
	if b.ExecutedAt != nil {
		executedAt = b.ExecutedAt.Format(time.RFC3339)
	}

	_, err := db.Exec(query,
		b.ID,
		b.Ticker,
		b.Shares.String(),
		b.CurrentPrice.String(),
		b.CostBasis.String(),
		b.UnrealizedLoss.String(),
		b.EstimatedTaxBenefit.String(),
		string(b.Status),
		b.CreatedAt.Format(time.RFC3339),
		executedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create test queue item: %v", err)
	}

	return model.HarvestQueueItem{
		ID:                  b.ID,
		Ticker:              b.Ticker,
		Shares:              b.Shares,
		CurrentPrice:        b.CurrentPrice,
		CostBasis:           b.CostBasis,
		UnrealizedLoss:      b.UnrealizedLoss,
		EstimatedTaxBenefit: b.EstimatedTaxBenefit,
		Status:              b.Status,
		CreatedAt:           b.CreatedAt,
		ExecutedAt:          b.ExecutedAt,
	}
}

// Convenience functions

// CreateRestriction creates an active restriction for the given ticker.
func CreateRestriction(t *testing.T, db *sql.DB, ticker string) model.WashSaleRestriction {
	t.Helper()
	return NewRestriction().WithTicker(ticker).Build(t, db)
}

// CreateExpiredRestriction creates a restriction whose window has elapsed
// but whose rebuy is still pending.
func CreateExpiredRestriction(t *testing.T, db *sql.DB, ticker string) model.WashSaleRestriction {
	t.Helper()
	return NewRestriction().WithTicker(ticker).SoldDaysAgo(45).Build(t, db)
}

// CreateQueueItem creates a pending queue item for the given ticker.
func CreateQueueItem(t *testing.T, db *sql.DB, ticker string) model.HarvestQueueItem {
	t.Helper()
	return NewQueueItem().WithTicker(ticker).Build(t, db)
}

// CreateApprovedQueueItem creates an approved queue item for the given ticker.
func CreateApprovedQueueItem(t *testing.T, db *sql.DB, ticker string) model.HarvestQueueItem {
	t.Helper()
	return NewQueueItem().WithTicker(ticker).Approved().Build(t, db)
}

// CreateLedgerYear inserts a loss ledger row from decimal strings.
func CreateLedgerYear(t *testing.T, db *sql.DB, year int, shortTerm, longTerm, used, carryforward string) {
	t.Helper()

	query := `
		INSERT INTO loss_ledger_years (year, short_term_losses, long_term_losses, used_against_gains, carryforward)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, year, shortTerm, longTerm, used, carryforward); err != nil {
		t.Fatalf("Failed to create test ledger year: %v", err)
	}
}

// CreateConstituent inserts one index constituent.
func CreateConstituent(t *testing.T, db *sql.DB, symbol, name, weight, sector string) {
	t.Helper()

	query := `
		INSERT INTO index_constituents (symbol, name, weight, sector)
		VALUES (?, ?, ?, ?)
	`
	if _, err := db.Exec(query, symbol, name, weight, sector); err != nil {
		t.Fatalf("Failed to create test constituent: %v", err)
	}
}
