package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/testutil"
)

// TestScannerService_Scan tests opportunity discovery.
//
// WHY: The scan is the entry point of the whole harvest flow. It must
// surface qualifying losers with correct math, skip winners and restricted
// tickers, and never write to the queue on its own.
func TestScannerService_Scan(t *testing.T) {
	t.Run("surfaces qualifying losers and skips winners", func(t *testing.T) {
		// Setup: default book is one loser (AAPL) and one winner (MSFT)
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestScannerService(t, db, mock)

		// Execute
		result, err := svc.Scan(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Scan() returned unexpected error: %v", err)
		}

		if result.PositionsScanned != 2 {
			t.Errorf("Expected 2 positions scanned, got %d", result.PositionsScanned)
		}
		if result.PositionsWithLoss != 1 {
			t.Errorf("Expected 1 losing position, got %d", result.PositionsWithLoss)
		}
		if len(result.Opportunities) != 1 {
			t.Fatalf("Expected 1 opportunity, got %d", len(result.Opportunities))
		}

		opp := result.Opportunities[0]
		if opp.Ticker != "AAPL" {
			t.Errorf("Expected AAPL, got %s", opp.Ticker)
		}
		if !opp.UnrealizedLoss.Equal(decimal.RequireFromString("-1000")) {
			t.Errorf("Expected loss -1000, got %s", opp.UnrealizedLoss)
		}
		if !opp.LossPct.Equal(decimal.RequireFromString("6.67")) {
			t.Errorf("Expected loss pct 6.67, got %s", opp.LossPct)
		}
		if !opp.EstimatedTaxBenefit.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("Expected benefit 350.00, got %s", opp.EstimatedTaxBenefit)
		}
		if opp.DaysHeld == nil || *opp.DaysHeld != 120 {
			t.Errorf("Expected 120 days held, got %v", opp.DaysHeld)
		}
		if !result.TotalPotentialBenefit.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("Expected total benefit 350.00, got %s", result.TotalPotentialBenefit)
		}
	})

	t.Run("excludes restricted tickers and counts them", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestScannerService(t, db, mock)

		testutil.CreateRestriction(t, db, "AAPL")

		result, err := svc.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan() returned unexpected error: %v", err)
		}

		if result.PositionsWithLoss != 1 {
			t.Errorf("Expected the restricted loser still counted as a loss, got %d", result.PositionsWithLoss)
		}
		if result.PositionsRestricted != 1 {
			t.Errorf("Expected 1 restricted position, got %d", result.PositionsRestricted)
		}
		if len(result.Opportunities) != 0 {
			t.Errorf("Expected no opportunities, got %d", len(result.Opportunities))
		}
	})

	t.Run("excludes positions bought too recently", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().
			WithPositions(testutil.MakePosition("AAPL", "100", "150.00", "140.00")).
			WithOrders(testutil.MakeFilledBuy("AAPL", "100", "150.00", 2))
		svc := testutil.NewTestScannerService(t, db, mock)

		result, err := svc.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan() returned unexpected error: %v", err)
		}

		if result.PositionsWithLoss != 1 {
			t.Errorf("Expected 1 losing position, got %d", result.PositionsWithLoss)
		}
		if len(result.Opportunities) != 0 {
			t.Errorf("Expected no opportunities for a 2-day-old lot, got %d", len(result.Opportunities))
		}
	})

	t.Run("merges queue state into opportunities", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestScannerService(t, db, mock)

		item := testutil.CreateQueueItem(t, db, "AAPL")

		result, err := svc.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan() returned unexpected error: %v", err)
		}

		if len(result.Opportunities) != 1 {
			t.Fatalf("Expected 1 opportunity, got %d", len(result.Opportunities))
		}
		opp := result.Opportunities[0]
		if opp.QueueStatus == nil || *opp.QueueStatus != model.HarvestStatusPending {
			t.Errorf("Expected pending queue status, got %v", opp.QueueStatus)
		}
		if opp.QueueID != item.ID {
			t.Errorf("Expected queue ID %s, got %s", item.ID, opp.QueueID)
		}
	})

	t.Run("scan does not write to the queue", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestScannerService(t, db, mock)

		if _, err := svc.Scan(context.Background()); err != nil {
			t.Fatalf("Scan() returned unexpected error: %v", err)
		}

		queue, err := svc.GetQueue()
		if err != nil {
			t.Fatalf("GetQueue() returned unexpected error: %v", err)
		}
		if len(queue) != 0 {
			t.Errorf("Expected empty queue after scan, got %d items", len(queue))
		}
	})

	t.Run("wraps broker failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithError(errors.New("connection refused"))
		svc := testutil.NewTestScannerService(t, db, mock)

		_, err := svc.Scan(context.Background())
		if err == nil {
			t.Fatal("Expected error from failing broker, got nil")
		}
		if !strings.Contains(err.Error(), "failed to fetch portfolio data") {
			t.Errorf("Expected wrapped fetch error, got %v", err)
		}
	})
}

// TestScannerService_HarvestBudget tests the portfolio-percentage cap.
//
// WHY: The cap keeps a single scan from proposing to liquidate too much of
// the portfolio at once. Packing is greedy by benefit: the first candidate
// that would overflow ends the list even when a smaller one further down
// would still fit.
func TestScannerService_HarvestBudget(t *testing.T) {
	// Setup: $100k portfolio, 10% cap -> $10k budget. Three losers with
	// market values 6k, 5k, 3k in descending benefit order.
	db := testutil.SetupTestDB(t)
	mock := testutil.NewMockBroker().
		WithPositions(
			testutil.MakePosition("AAA", "100", "75.00", "60.00"), // mv 6000, benefit 525.00
			testutil.MakePosition("BBB", "100", "62.50", "50.00"), // mv 5000, benefit 437.50
			testutil.MakePosition("CCC", "100", "37.50", "30.00"), // mv 3000, benefit 262.50
		).
		WithOrders(
			testutil.MakeFilledBuy("AAA", "100", "75.00", 120),
			testutil.MakeFilledBuy("BBB", "100", "62.50", 120),
			testutil.MakeFilledBuy("CCC", "100", "37.50", 120),
		).
		WithTotalValue(decimal.NewFromInt(100000))
	svc := testutil.NewTestScannerService(t, db, mock)

	// Execute
	result, err := svc.Scan(context.Background())

	// Assert: AAA fits (6k), BBB would overflow (11k > 10k) and ends the
	// list; CCC is never reconsidered.
	if err != nil {
		t.Fatalf("Scan() returned unexpected error: %v", err)
	}

	if result.PositionsWithLoss != 3 {
		t.Errorf("Expected 3 losing positions, got %d", result.PositionsWithLoss)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("Expected 1 opportunity within budget, got %d", len(result.Opportunities))
	}
	if result.Opportunities[0].Ticker != "AAA" {
		t.Errorf("Expected AAA kept, got %s", result.Opportunities[0].Ticker)
	}
	if !result.TotalPotentialBenefit.Equal(decimal.RequireFromString("525.00")) {
		t.Errorf("Expected total benefit 525.00, got %s", result.TotalPotentialBenefit)
	}
}

// TestScannerService_Queue tests the persisted queue operations.
//
// WHY: Review decisions are one-directional: approve and reject act only on
// pending items, and stale pending items from earlier sessions are swept
// rather than executed at dead prices.
func TestScannerService_Queue(t *testing.T) {
	queueRequest := request.QueueHarvestRequest{
		Ticker:              "AAPL",
		Shares:              decimal.NewFromInt(100),
		CurrentPrice:        decimal.RequireFromString("140.00"),
		CostBasis:           decimal.RequireFromString("15000.00"),
		UnrealizedLoss:      decimal.RequireFromString("-1000.00"),
		EstimatedTaxBenefit: decimal.RequireFromString("350.00"),
	}

	t.Run("queues a pending item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestScannerService(t, db, testutil.NewMockBroker())

		item, err := svc.AddToQueue(queueRequest)
		if err != nil {
			t.Fatalf("AddToQueue() returned unexpected error: %v", err)
		}

		stored, err := svc.GetQueueItem(item.ID)
		if err != nil {
			t.Fatalf("GetQueueItem() returned unexpected error: %v", err)
		}
		if stored.Status != model.HarvestStatusPending {
			t.Errorf("Expected pending status, got %s", stored.Status)
		}
		if !stored.UnrealizedLoss.Equal(decimal.RequireFromString("-1000.00")) {
			t.Errorf("Expected loss -1000.00, got %s", stored.UnrealizedLoss)
		}
	})

	t.Run("approve and reject move only pending items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestScannerService(t, db, testutil.NewMockBroker())

		item, err := svc.AddToQueue(queueRequest)
		if err != nil {
			t.Fatalf("AddToQueue() returned unexpected error: %v", err)
		}

		approved, err := svc.ApproveHarvest(item.ID)
		if err != nil {
			t.Fatalf("ApproveHarvest() returned unexpected error: %v", err)
		}
		if approved.Status != model.HarvestStatusApproved {
			t.Errorf("Expected approved status, got %s", approved.Status)
		}

		if _, err := svc.ApproveHarvest(item.ID); !errors.Is(err, apperrors.ErrQueueItemNotPending) {
			t.Errorf("Expected ErrQueueItemNotPending on double approve, got %v", err)
		}
		if _, err := svc.RejectHarvest(item.ID); !errors.Is(err, apperrors.ErrQueueItemNotPending) {
			t.Errorf("Expected ErrQueueItemNotPending rejecting an approved item, got %v", err)
		}
	})

	t.Run("unknown queue item is not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestScannerService(t, db, testutil.NewMockBroker())

		if _, err := svc.ApproveHarvest(testutil.MakeID()); !errors.Is(err, apperrors.ErrQueueItemNotFound) {
			t.Errorf("Expected ErrQueueItemNotFound, got %v", err)
		}
	})

	t.Run("lists filter by status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestScannerService(t, db, testutil.NewMockBroker())

		testutil.CreateQueueItem(t, db, "AAPL")
		testutil.CreateApprovedQueueItem(t, db, "GOOGL")

		pending, err := svc.GetPendingHarvests()
		if err != nil {
			t.Fatalf("GetPendingHarvests() returned unexpected error: %v", err)
		}
		if len(pending) != 1 || pending[0].Ticker != "AAPL" {
			t.Errorf("Expected only the pending AAPL item, got %d items", len(pending))
		}

		approved, err := svc.GetApprovedHarvests()
		if err != nil {
			t.Fatalf("GetApprovedHarvests() returned unexpected error: %v", err)
		}
		if len(approved) != 1 || approved[0].Ticker != "GOOGL" {
			t.Errorf("Expected only the approved GOOGL item, got %d items", len(approved))
		}
	})

	t.Run("sweeps stale pending items only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestScannerService(t, db, testutil.NewMockBroker())

		testutil.NewQueueItem().WithTicker("OLD").CreatedDaysAgo(2).Build(t, db)
		testutil.NewQueueItem().WithTicker("OLDAPPROVED").CreatedDaysAgo(2).Approved().Build(t, db)
		fresh := testutil.CreateQueueItem(t, db, "FRESH")

		removed, err := svc.ClearExpiredPending()
		if err != nil {
			t.Fatalf("ClearExpiredPending() returned unexpected error: %v", err)
		}

		if removed != 1 {
			t.Errorf("Expected 1 stale item removed, got %d", removed)
		}

		queue, err := svc.GetQueue()
		if err != nil {
			t.Fatalf("GetQueue() returned unexpected error: %v", err)
		}
		if len(queue) != 2 {
			t.Fatalf("Expected 2 items remaining, got %d", len(queue))
		}
		for _, item := range queue {
			if item.Ticker == "OLD" {
				t.Error("Expected the stale pending item to be swept")
			}
		}
		if _, err := svc.GetQueueItem(fresh.ID); err != nil {
			t.Errorf("Expected today's pending item to survive, got %v", err)
		}
	})
}
