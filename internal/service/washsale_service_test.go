package service_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestWashSaleService_CreateRestriction tests restriction creation.
//
// WHY: The restriction end anchors every later activity check. It must come
// out exactly window+1 days after the sale so the first clear day is the day
// after the window closes, and it must be derived from the rules in force at
// sale time.
func TestWashSaleService_CreateRestriction(t *testing.T) {
	t.Run("ends window plus one day after the sale", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)

		// Execute
		restriction, err := svc.CreateRestriction("AAPL",
			decimal.NewFromInt(100), decimal.RequireFromString("140.00"), date(2024, 12, 1))

		// Assert
		if err != nil {
			t.Fatalf("CreateRestriction() returned unexpected error: %v", err)
		}

		wantEnd := date(2025, 1, 1)
		if !restriction.RestrictionEnd.Equal(wantEnd) {
			t.Errorf("Expected restriction end %s, got %s", wantEnd, restriction.RestrictionEnd)
		}
		if restriction.RebuyStatus != model.RebuyStatusPending {
			t.Errorf("Expected pending rebuy status, got %s", restriction.RebuyStatus)
		}
	})

	t.Run("normalizes the sale timestamp to a date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)

		saleAt := time.Date(2024, 12, 1, 15, 42, 9, 0, time.UTC)
		restriction, err := svc.CreateRestriction("AAPL",
			decimal.NewFromInt(100), decimal.RequireFromString("140.00"), saleAt)
		if err != nil {
			t.Fatalf("CreateRestriction() returned unexpected error: %v", err)
		}

		if !restriction.SaleDate.Equal(date(2024, 12, 1)) {
			t.Errorf("Expected sale date 2024-12-01, got %s", restriction.SaleDate)
		}
	})

	t.Run("persists the restriction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)

		created, err := svc.CreateRestriction("GOOGL",
			decimal.RequireFromString("50"), decimal.RequireFromString("140.00"), date(2024, 12, 1))
		if err != nil {
			t.Fatalf("CreateRestriction() returned unexpected error: %v", err)
		}

		stored, err := svc.GetRestriction(created.ID)
		if err != nil {
			t.Fatalf("GetRestriction() returned unexpected error: %v", err)
		}

		if stored.Ticker != "GOOGL" {
			t.Errorf("Expected ticker GOOGL, got %s", stored.Ticker)
		}
		if !stored.SharesSold.Equal(decimal.RequireFromString("50")) {
			t.Errorf("Expected 50 shares sold, got %s", stored.SharesSold)
		}
		if !stored.SalePrice.Equal(decimal.RequireFromString("140.00")) {
			t.Errorf("Expected sale price 140.00, got %s", stored.SalePrice)
		}
	})

	t.Run("uses the window configured at sale time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		rulesService := testutil.NewTestRulesService(t, db)
		svc := testutil.NewTestWashSaleService(t, db)

		rules := model.DefaultRules()
		rules.WashSaleWindowDays = 60
		if err := rulesService.UpdateRules(rules); err != nil {
			t.Fatalf("UpdateRules() returned unexpected error: %v", err)
		}

		restriction, err := svc.CreateRestriction("AAPL",
			decimal.NewFromInt(100), decimal.RequireFromString("140.00"), date(2024, 12, 1))
		if err != nil {
			t.Fatalf("CreateRestriction() returned unexpected error: %v", err)
		}

		wantEnd := date(2024, 12, 1).AddDate(0, 0, 61)
		if !restriction.RestrictionEnd.Equal(wantEnd) {
			t.Errorf("Expected restriction end %s, got %s", wantEnd, restriction.RestrictionEnd)
		}
	})
}

// TestWashSaleService_IsRestricted tests the forward-looking activity window.
//
// WHY: The restriction must hold through its end date inclusive and clear
// the day after. An off-by-one here either permits a violating sale or
// blocks a legal one.
func TestWashSaleService_IsRestricted(t *testing.T) {
	// Setup: sold 2024-12-01, restriction ends 2025-01-01
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWashSaleService(t, db)
	testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

	tests := []struct {
		name string
		asOf time.Time
		want bool
	}{
		{"restricted on the sale date", date(2024, 12, 1), true},
		{"restricted mid-window", date(2024, 12, 31), true},
		{"restricted on the end date", date(2025, 1, 1), true},
		{"clear the day after the end date", date(2025, 1, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsRestricted("AAPL", tt.asOf)
			if err != nil {
				t.Fatalf("IsRestricted() returned unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsRestricted(%s) = %v, want %v", tt.asOf.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	t.Run("unknown ticker is never restricted", func(t *testing.T) {
		got, err := svc.IsRestricted("ZZZZ", date(2024, 12, 15))
		if err != nil {
			t.Fatalf("IsRestricted() returned unexpected error: %v", err)
		}
		if got {
			t.Error("Expected unrestricted ticker")
		}
	})
}

// TestWashSaleService_WouldViolate tests the symmetric purchase check.
//
// WHY: The wash sale window reaches 30 days in BOTH directions around a
// sale. Each restriction's window is derived from its own stored dates, so
// a later rules change must not reinterpret old sales.
func TestWashSaleService_WouldViolate(t *testing.T) {
	t.Run("flags buys within the symmetric window", func(t *testing.T) {
		// Setup: sold 2024-12-01 under the default 30-day window
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		tests := []struct {
			name string
			buy  time.Time
			want bool
		}{
			{"thirty days before the sale", date(2024, 11, 1), true},
			{"thirty-one days before the sale", date(2024, 10, 31), false},
			{"the sale date itself", date(2024, 12, 1), true},
			{"thirty days after the sale", date(2024, 12, 31), true},
			{"thirty-one days after the sale", date(2025, 1, 1), false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := svc.WouldViolate("AAPL", tt.buy)
				if err != nil {
					t.Fatalf("WouldViolate() returned unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("WouldViolate(%s) = %v, want %v", tt.buy.Format("2006-01-02"), got, tt.want)
				}
			})
		}
	})

	t.Run("old sales keep the window they were created under", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		rulesService := testutil.NewTestRulesService(t, db)
		svc := testutil.NewTestWashSaleService(t, db)

		// Restriction recorded under the default 30-day window
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		// Shrink the window after the fact
		rules := model.DefaultRules()
		rules.WashSaleWindowDays = 5
		if err := rulesService.UpdateRules(rules); err != nil {
			t.Fatalf("UpdateRules() returned unexpected error: %v", err)
		}

		// Twenty days out: inside the original window, outside the new one
		got, err := svc.WouldViolate("AAPL", date(2024, 12, 21))
		if err != nil {
			t.Fatalf("WouldViolate() returned unexpected error: %v", err)
		}
		if !got {
			t.Error("Expected the stored restriction to keep its original 30-day window")
		}
	})

	t.Run("any recorded sale can violate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)

		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 6, 1)).Build(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		got, err := svc.WouldViolate("AAPL", date(2024, 6, 15))
		if err != nil {
			t.Fatalf("WouldViolate() returned unexpected error: %v", err)
		}
		if !got {
			t.Error("Expected the older sale's window to flag the buy")
		}
	})
}

// TestWashSaleService_GetPendingRebuys tests rebuy surfacing.
//
// WHY: Only restrictions whose window has cleared AND whose rebuy is still
// undecided belong on the rebuy list; surfacing an active restriction would
// invite a violating purchase.
func TestWashSaleService_GetPendingRebuys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWashSaleService(t, db)

	expired := testutil.CreateExpiredRestriction(t, db, "AAPL")                               // cleared, pending
	testutil.CreateRestriction(t, db, "GOOGL")                                                // still active
	testutil.NewRestriction().WithTicker("NVDA").SoldDaysAgo(50).Skipped().Build(t, db)       // resolved
	testutil.NewRestriction().WithTicker("AMZN").SoldDaysAgo(60).
		Completed("180.00", time.Now().UTC()).Build(t, db) // resolved

	pending, err := svc.GetPendingRebuys(time.Now().UTC())
	if err != nil {
		t.Fatalf("GetPendingRebuys() returned unexpected error: %v", err)
	}

	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending rebuy, got %d", len(pending))
	}
	if pending[0].ID != expired.ID {
		t.Errorf("Expected restriction %s, got %s", expired.ID, pending[0].ID)
	}
}

// TestWashSaleService_MarkRebuyComplete tests the completed transition.
//
// WHY: Rebuy resolution is terminal. Double-completing would overwrite the
// recorded fill, and completing a skipped restriction would resurrect it.
func TestWashSaleService_MarkRebuyComplete(t *testing.T) {
	t.Run("records price and date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		restriction := testutil.CreateExpiredRestriction(t, db, "AAPL")

		updated, err := svc.MarkRebuyComplete(restriction.ID, decimal.RequireFromString("142.50"), date(2025, 1, 2))
		if err != nil {
			t.Fatalf("MarkRebuyComplete() returned unexpected error: %v", err)
		}

		if updated.RebuyStatus != model.RebuyStatusCompleted {
			t.Errorf("Expected completed status, got %s", updated.RebuyStatus)
		}
		if updated.RebuyPrice == nil || !updated.RebuyPrice.Equal(decimal.RequireFromString("142.50")) {
			t.Errorf("Expected rebuy price 142.50, got %v", updated.RebuyPrice)
		}
		if updated.RebuyDate == nil || !updated.RebuyDate.Equal(date(2025, 1, 2)) {
			t.Errorf("Expected rebuy date 2025-01-02, got %v", updated.RebuyDate)
		}
	})

	t.Run("rejects a second resolution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		restriction := testutil.CreateExpiredRestriction(t, db, "AAPL")

		if _, err := svc.MarkRebuyComplete(restriction.ID, decimal.RequireFromString("142.50"), date(2025, 1, 2)); err != nil {
			t.Fatalf("First MarkRebuyComplete() returned unexpected error: %v", err)
		}

		_, err := svc.MarkRebuyComplete(restriction.ID, decimal.RequireFromString("150.00"), date(2025, 1, 3))
		if !errors.Is(err, apperrors.ErrRebuyAlreadyResolved) {
			t.Errorf("Expected ErrRebuyAlreadyResolved, got %v", err)
		}
	})

	t.Run("rejects completing a skipped restriction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		restriction := testutil.NewRestriction().WithTicker("AAPL").SoldDaysAgo(50).Skipped().Build(t, db)

		_, err := svc.MarkRebuyComplete(restriction.ID, decimal.RequireFromString("142.50"), date(2025, 1, 2))
		if !errors.Is(err, apperrors.ErrRebuyAlreadyResolved) {
			t.Errorf("Expected ErrRebuyAlreadyResolved, got %v", err)
		}
	})

	t.Run("unknown restriction returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)

		_, err := svc.MarkRebuyComplete(testutil.MakeID(), decimal.RequireFromString("142.50"), date(2025, 1, 2))
		if !errors.Is(err, apperrors.ErrRestrictionNotFound) {
			t.Errorf("Expected ErrRestrictionNotFound, got %v", err)
		}
	})
}

// TestWashSaleService_MarkRebuySkipped tests the skipped transition.
//
// WHY: Skipping must leave no stray fill data and, like completion, must be
// terminal.
func TestWashSaleService_MarkRebuySkipped(t *testing.T) {
	t.Run("marks skipped with no fill data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		restriction := testutil.CreateExpiredRestriction(t, db, "AAPL")

		updated, err := svc.MarkRebuySkipped(restriction.ID)
		if err != nil {
			t.Fatalf("MarkRebuySkipped() returned unexpected error: %v", err)
		}

		if updated.RebuyStatus != model.RebuyStatusSkipped {
			t.Errorf("Expected skipped status, got %s", updated.RebuyStatus)
		}
		if updated.RebuyDate != nil || updated.RebuyPrice != nil {
			t.Errorf("Expected no fill data, got date=%v price=%v", updated.RebuyDate, updated.RebuyPrice)
		}
	})

	t.Run("rejects a second resolution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		restriction := testutil.CreateExpiredRestriction(t, db, "AAPL")

		if _, err := svc.MarkRebuySkipped(restriction.ID); err != nil {
			t.Fatalf("First MarkRebuySkipped() returned unexpected error: %v", err)
		}

		if _, err := svc.MarkRebuySkipped(restriction.ID); !errors.Is(err, apperrors.ErrRebuyAlreadyResolved) {
			t.Errorf("Expected ErrRebuyAlreadyResolved, got %v", err)
		}
	})
}

// TestWashSaleService_ClearDates tests clear-date reporting.
//
// WHY: The clear date is what the UI shows an operator waiting to re-enter;
// with overlapping restrictions the latest window governs.
func TestWashSaleService_ClearDates(t *testing.T) {
	t.Run("reports the day after the restriction end", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		clearDate, err := svc.GetClearDate("AAPL", date(2024, 12, 15))
		if err != nil {
			t.Fatalf("GetClearDate() returned unexpected error: %v", err)
		}

		if clearDate == nil || !clearDate.Equal(date(2025, 1, 2)) {
			t.Errorf("Expected clear date 2025-01-02, got %v", clearDate)
		}
	})

	t.Run("latest of overlapping restrictions governs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 10)).Build(t, db)

		clearDate, err := svc.GetClearDate("AAPL", date(2024, 12, 15))
		if err != nil {
			t.Fatalf("GetClearDate() returned unexpected error: %v", err)
		}

		if clearDate == nil || !clearDate.Equal(date(2025, 1, 11)) {
			t.Errorf("Expected clear date 2025-01-11, got %v", clearDate)
		}
	})

	t.Run("nil when nothing is active", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		clearDate, err := svc.GetClearDate("AAPL", date(2025, 6, 1))
		if err != nil {
			t.Fatalf("GetClearDate() returned unexpected error: %v", err)
		}
		if clearDate != nil {
			t.Errorf("Expected nil clear date, got %v", clearDate)
		}
	})

	t.Run("days until clear counts from asOf", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWashSaleService(t, db)
		testutil.NewRestriction().WithTicker("AAPL").WithSaleDate(date(2024, 12, 1)).Build(t, db)

		days, err := svc.DaysUntilClear("AAPL", date(2024, 12, 31))
		if err != nil {
			t.Fatalf("DaysUntilClear() returned unexpected error: %v", err)
		}

		if days == nil || *days != 2 {
			t.Errorf("Expected 2 days until clear, got %v", days)
		}
	})
}

// TestWashSaleService_ConcurrentCreateAndQuery hammers the ledger from many
// goroutines.
//
// WHY: Scans, harvest executions, and the retention sweep all reach the
// ledger without caller-side coordination. A lost insert would let a
// restricted ticker slip through the next scan. Run with -race.
func TestWashSaleService_ConcurrentCreateAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWashSaleService(t, db)

	const writers = 4
	const perWriter = 25
	asOf := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				ticker := fmt.Sprintf("SYM%dX%d", w, i)
				if _, err := svc.CreateRestriction(ticker,
					decimal.NewFromInt(10), decimal.RequireFromString("100.00"), asOf); err != nil {
					t.Errorf("CreateRestriction(%s) returned unexpected error: %v", ticker, err)
				}
			}
		}(w)
	}

	// Readers churn the activity queries concurrently
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := svc.GetActiveRestrictions(asOf); err != nil {
					t.Errorf("GetActiveRestrictions() returned unexpected error: %v", err)
				}
				if _, err := svc.WouldViolate("SYM0X0", asOf); err != nil {
					t.Errorf("WouldViolate() returned unexpected error: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	all, err := svc.GetAllRestrictions()
	if err != nil {
		t.Fatalf("GetAllRestrictions() returned unexpected error: %v", err)
	}
	if len(all) != writers*perWriter {
		t.Errorf("Expected %d restrictions, got %d", writers*perWriter, len(all))
	}
}

// TestWashSaleService_Cleanup tests the retention sweep.
//
// WHY: Old resolved restrictions are disposable history, but pending ones
// still carry an open decision and must survive regardless of age.
func TestWashSaleService_Cleanup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWashSaleService(t, db)

	testutil.NewRestriction().WithTicker("OLD1").SoldDaysAgo(200).Skipped().Build(t, db)
	testutil.NewRestriction().WithTicker("OLD2").SoldDaysAgo(150).
		Completed("95.00", time.Now().UTC().AddDate(0, 0, -100)).Build(t, db)
	oldPending := testutil.NewRestriction().WithTicker("OLD3").SoldDaysAgo(300).Build(t, db)
	recentResolved := testutil.NewRestriction().WithTicker("NEW1").SoldDaysAgo(40).Skipped().Build(t, db)

	removed, err := svc.Cleanup(90, time.Now().UTC())
	if err != nil {
		t.Fatalf("Cleanup() returned unexpected error: %v", err)
	}

	if removed != 2 {
		t.Errorf("Expected 2 restrictions removed, got %d", removed)
	}

	remaining, err := svc.GetAllRestrictions()
	if err != nil {
		t.Fatalf("GetAllRestrictions() returned unexpected error: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 restrictions remaining, got %d", len(remaining))
	}

	for _, want := range []string{oldPending.ID, recentResolved.ID} {
		found := false
		for _, r := range remaining {
			if r.ID == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected restriction %s to survive the sweep", want)
		}
	}
}
