package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/testutil"
)

func TestRebalanceHandler_Plan(t *testing.T) {
	setupHandler := func(t *testing.T) (*RebalanceHandler, *sql.DB, *testutil.MockBroker) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		rebalance := testutil.NewTestRebalanceService(t, db, brokerMock)
		index := testutil.NewTestIndexService(t, db, brokerMock)

		// AAPL sits exactly on target at the default $200k equity; VTI is
		// a wholly missing constituent.
		testutil.CreateConstituent(t, db, "AAPL", "Apple Inc", "7", "Technology")
		testutil.CreateConstituent(t, db, "VTI", "Vanguard Total Market", "5", "ETF")

		return NewRebalanceHandler(rebalance, index), db, brokerMock
	}

	t.Run("plans with the default threshold when the body is empty", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rebalance/plan", nil)
		w := httptest.NewRecorder()

		handler.Plan(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var plan model.RebalancePlan
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&plan)

		if len(plan.Recommendations) != 1 {
			t.Fatalf("Expected 1 recommendation, got %d", len(plan.Recommendations))
		}

		rec := plan.Recommendations[0]
		if rec.Symbol != "VTI" || rec.Action != model.TradeActionBuy {
			t.Errorf("Expected a VTI buy, got %s %s", rec.Symbol, rec.Action)
		}
		if !rec.Shares.Equal(decimal.NewFromInt(100)) || !rec.CurrentPrice.Equal(decimal.NewFromInt(100)) {
			t.Errorf("Expected 100 shares at the $100 default entry price, got %s @ %s", rec.Shares, rec.CurrentPrice)
		}
		if !rec.Notional.Equal(decimal.RequireFromString("10000.00")) {
			t.Errorf("Expected notional 10000.00, got %s", rec.Notional)
		}
		if rec.Reason != "Underweight by 100.0%" {
			t.Errorf("Expected underweight reason, got %q", rec.Reason)
		}
		if !plan.TotalBuys.Equal(decimal.RequireFromString("10000.00")) {
			t.Errorf("Expected total buys 10000.00, got %s", plan.TotalBuys)
		}
		if !plan.NetCashFlow.Equal(decimal.RequireFromString("-10000.00")) {
			t.Errorf("Expected net cash flow -10000.00, got %s", plan.NetCashFlow)
		}
		if plan.BlockedTrades != 0 {
			t.Errorf("Expected no blocked trades, got %d", plan.BlockedTrades)
		}
	})

	t.Run("honors an explicit threshold and trade cap", func(t *testing.T) {
		handler, db, _ := setupHandler(t)

		// An overweight MSFT forces the capped plan to choose; sells sort
		// ahead of buys.
		testutil.CreateConstituent(t, db, "MSFT", "Microsoft Corp", "6", "Technology")

		body := `{"thresholdPct": 1, "maxTrades": 1}`

		req := testutil.NewRequestWithBody(http.MethodPost, "/api/v1/rebalance/plan", body)
		w := httptest.NewRecorder()

		handler.Plan(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var plan model.RebalancePlan
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&plan)

		if len(plan.Recommendations) != 1 {
			t.Fatalf("Expected the plan to be capped at 1 trade, got %d", len(plan.Recommendations))
		}

		rec := plan.Recommendations[0]
		if rec.Symbol != "MSFT" || rec.Action != model.TradeActionSell {
			t.Errorf("Expected the MSFT trim to survive the cap, got %s %s", rec.Symbol, rec.Action)
		}
		if !rec.Shares.Equal(decimal.RequireFromString("9.659")) {
			t.Errorf("Expected 9.659 shares, got %s", rec.Shares)
		}
		if rec.Reason != "Overweight by 31.8%" {
			t.Errorf("Expected overweight reason, got %q", rec.Reason)
		}
	})

	t.Run("returns 400 on a negative threshold", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		body := `{"thresholdPct": -5}`

		req := testutil.NewRequestWithBody(http.MethodPost, "/api/v1/rebalance/plan", body)
		w := httptest.NewRecorder()

		handler.Plan(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 500 when the broker is unreachable", func(t *testing.T) {
		handler, _, brokerMock := setupHandler(t)
		brokerMock.WithError(errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rebalance/plan", nil)
		w := httptest.NewRecorder()

		handler.Plan(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestRebalanceHandler_HarvestOpportunities(t *testing.T) {
	setupHandler := func(t *testing.T) *RebalanceHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		rebalance := testutil.NewTestRebalanceService(t, db, brokerMock)
		index := testutil.NewTestIndexService(t, db, brokerMock)
		return NewRebalanceHandler(rebalance, index)
	}

	t.Run("recommends liquidating losers at the default floor", func(t *testing.T) {
		handler := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/rebalance/harvest-opportunities", nil)
		w := httptest.NewRecorder()

		handler.HarvestOpportunities(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var opportunities []model.TradeRecommendation
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&opportunities)

		if len(opportunities) != 1 {
			t.Fatalf("Expected 1 opportunity, got %d", len(opportunities))
		}

		opp := opportunities[0]
		if opp.Symbol != "AAPL" || opp.Action != model.TradeActionSell {
			t.Errorf("Expected an AAPL sell, got %s %s", opp.Symbol, opp.Action)
		}
		if opp.Reason != "Tax-loss harvest - save $350.00" {
			t.Errorf("Expected harvest reason, got %q", opp.Reason)
		}
		if opp.TaxImpact == nil || !opp.TaxImpact.Equal(decimal.RequireFromString("-350.00")) {
			t.Errorf("Expected tax impact -350.00, got %v", opp.TaxImpact)
		}
	})

	t.Run("raises the floor with minLoss", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/rebalance/harvest-opportunities",
			map[string]string{"minLoss": "2000"},
		)
		w := httptest.NewRecorder()

		handler.HarvestOpportunities(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var opportunities []model.TradeRecommendation
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&opportunities)

		if len(opportunities) != 0 {
			t.Errorf("Expected no opportunities above a $2000 floor, got %d", len(opportunities))
		}
	})

	t.Run("returns 400 on a negative minLoss", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/rebalance/harvest-opportunities",
			map[string]string{"minLoss": "-50"},
		)
		w := httptest.NewRecorder()

		handler.HarvestOpportunities(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 on a malformed minLoss", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/rebalance/harvest-opportunities",
			map[string]string{"minLoss": "lots"},
		)
		w := httptest.NewRecorder()

		handler.HarvestOpportunities(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestRebalanceHandler_TaxSavings(t *testing.T) {
	setupHandler := func(t *testing.T) *RebalanceHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		rebalance := testutil.NewTestRebalanceService(t, db, brokerMock)
		index := testutil.NewTestIndexService(t, db, brokerMock)
		return NewRebalanceHandler(rebalance, index)
	}

	t.Run("estimates savings across every unblocked loss", func(t *testing.T) {
		handler := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/rebalance/tax-savings", nil)
		w := httptest.NewRecorder()

		handler.TaxSavings(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]decimal.Decimal
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if !response["estimatedAnnualSavings"].Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("Expected savings 350.00, got %s", response["estimatedAnnualSavings"])
		}
	})
}
