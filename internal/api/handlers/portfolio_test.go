package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/testutil"
)

func TestPortfolioHandler_Positions(t *testing.T) {
	setupHandler := func(t *testing.T) (*PortfolioHandler, *sql.DB, *testutil.MockBroker) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		portfolio := testutil.NewTestPortfolioService(t, db, brokerMock)
		return NewPortfolioHandler(portfolio), db, brokerMock
	}

	t.Run("returns holdings largest first with derived values", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/positions", nil)
		w := httptest.NewRecorder()

		handler.Positions(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var positions []PositionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&positions)

		if len(positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(positions))
		}
		if positions[0].Ticker != "MSFT" || positions[1].Ticker != "AAPL" {
			t.Errorf("Expected MSFT before AAPL, got %s, %s", positions[0].Ticker, positions[1].Ticker)
		}

		aapl := positions[1]
		if !aapl.MarketValue.Equal(decimal.RequireFromString("14000.00")) {
			t.Errorf("Expected market value 14000.00, got %s", aapl.MarketValue)
		}
		if !aapl.UnrealizedGainLoss.Equal(decimal.RequireFromString("-1000.00")) {
			t.Errorf("Expected unrealized loss -1000.00, got %s", aapl.UnrealizedGainLoss)
		}
		if !aapl.UnrealizedGainLossPct.Equal(decimal.RequireFromString("-6.67")) {
			t.Errorf("Expected loss pct -6.67, got %s", aapl.UnrealizedGainLossPct)
		}
	})

	t.Run("marks a restricted ticker with its wash sale end", func(t *testing.T) {
		handler, db, _ := setupHandler(t)

		restriction := testutil.CreateRestriction(t, db, "AAPL")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/positions", nil)
		w := httptest.NewRecorder()

		handler.Positions(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var positions []PositionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&positions)

		byTicker := make(map[string]PositionResponse, len(positions))
		for _, position := range positions {
			byTicker[position.Ticker] = position
		}

		aapl := byTicker["AAPL"]
		if aapl.WashSaleUntil == nil || !aapl.WashSaleUntil.Equal(restriction.RestrictionEnd) {
			t.Errorf("Expected AAPL wash sale until %v, got %v", restriction.RestrictionEnd, aapl.WashSaleUntil)
		}
		if msft := byTicker["MSFT"]; msft.WashSaleUntil != nil {
			t.Errorf("Expected MSFT to be unrestricted, got %v", msft.WashSaleUntil)
		}
	})

	t.Run("returns 500 when the broker is unreachable", func(t *testing.T) {
		handler, _, brokerMock := setupHandler(t)
		brokerMock.WithError(errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/positions", nil)
		w := httptest.NewRecorder()

		handler.Positions(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPortfolioHandler_Position(t *testing.T) {
	setupHandler := func(t *testing.T) (*PortfolioHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		portfolio := testutil.NewTestPortfolioService(t, db, brokerMock)
		return NewPortfolioHandler(portfolio), db
	}

	t.Run("returns one holding by ticker", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/v1/portfolio/positions/MSFT",
			map[string]string{"ticker": "MSFT"},
		)
		w := httptest.NewRecorder()

		handler.Position(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var position PositionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&position)

		if position.Ticker != "MSFT" {
			t.Errorf("Expected ticker MSFT, got %s", position.Ticker)
		}
		if !position.MarketValue.Equal(decimal.RequireFromString("15820.00")) {
			t.Errorf("Expected market value 15820.00, got %s", position.MarketValue)
		}
	})

	t.Run("returns 400 on a malformed ticker", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/v1/portfolio/positions/msft",
			map[string]string{"ticker": "msft"},
		)
		w := httptest.NewRecorder()

		handler.Position(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 when the ticker is not held", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/v1/portfolio/positions/ZZZZ",
			map[string]string{"ticker": "ZZZZ"},
		)
		w := httptest.NewRecorder()

		handler.Position(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPortfolioHandler_Summary(t *testing.T) {
	setupHandler := func(t *testing.T) (*PortfolioHandler, *sql.DB, *testutil.MockBroker) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker()
		portfolio := testutil.NewTestPortfolioService(t, db, brokerMock)
		return NewPortfolioHandler(portfolio), db, brokerMock
	}

	t.Run("aggregates equity and harvesting state", func(t *testing.T) {
		handler, db, _ := setupHandler(t)

		testutil.CreateLedgerYear(t, db, time.Now().Year(), "1500.00", "250.00", "0", "0")
		testutil.CreateQueueItem(t, db, "AAPL")
		testutil.CreateApprovedQueueItem(t, db, "MSFT")
		testutil.CreateRestriction(t, db, "NVDA")
		testutil.CreateExpiredRestriction(t, db, "TSLA")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/summary", nil)
		w := httptest.NewRecorder()

		handler.Summary(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var summary model.PortfolioSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)

		if !summary.TotalValue.Equal(decimal.NewFromInt(200000)) {
			t.Errorf("Expected total value 200000, got %s", summary.TotalValue)
		}
		if !summary.TotalCostBasis.Equal(decimal.RequireFromString("27400.00")) {
			t.Errorf("Expected cost basis 27400.00, got %s", summary.TotalCostBasis)
		}
		if !summary.UnrealizedGainLoss.Equal(decimal.RequireFromString("2420.00")) {
			t.Errorf("Expected unrealized gain 2420.00, got %s", summary.UnrealizedGainLoss)
		}
		if !summary.UnrealizedGainLossPct.Equal(decimal.RequireFromString("8.83")) {
			t.Errorf("Expected gain pct 8.83, got %s", summary.UnrealizedGainLossPct)
		}
		if !summary.YTDHarvestedLosses.Equal(decimal.RequireFromString("-1750.00")) {
			t.Errorf("Expected YTD harvested -1750.00, got %s", summary.YTDHarvestedLosses)
		}
		if summary.PendingHarvestOpportunities != 1 {
			t.Errorf("Expected 1 pending opportunity, got %d", summary.PendingHarvestOpportunities)
		}
		if summary.ActiveWashSaleRestrictions != 1 {
			t.Errorf("Expected 1 active restriction, got %d", summary.ActiveWashSaleRestrictions)
		}
	})

	t.Run("returns 500 when the broker is unreachable", func(t *testing.T) {
		handler, _, brokerMock := setupHandler(t)
		brokerMock.WithError(errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/summary", nil)
		w := httptest.NewRecorder()

		handler.Summary(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPortfolioHandler_Trades(t *testing.T) {
	setupHandler := func(t *testing.T) (*PortfolioHandler, *sql.DB, *testutil.MockBroker) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		brokerMock := testutil.NewMockBroker().WithOrders(
			testutil.MakeFilledSell("AAPL", "100", "140.00", 2),
			testutil.MakeFilledBuy("MSFT", "40", "310.00", 10),
		)
		portfolio := testutil.NewTestPortfolioService(t, db, brokerMock)
		return NewPortfolioHandler(portfolio), db, brokerMock
	}

	t.Run("returns fills newest first with harvest links", func(t *testing.T) {
		handler, db, _ := setupHandler(t)

		item := testutil.NewQueueItem().
			WithTicker("AAPL").
			Executed(time.Now().UTC().AddDate(0, 0, -2)).
			Build(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/trades", nil)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var records []model.TradeRecord
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&records)

		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if records[0].Ticker != "AAPL" || records[0].TradeType != model.TradeActionSell {
			t.Errorf("Expected the AAPL sell first, got %s %s", records[0].Ticker, records[0].TradeType)
		}
		if records[0].HarvestEventID != item.ID {
			t.Errorf("Expected harvest link %s, got %s", item.ID, records[0].HarvestEventID)
		}
		if !records[0].TotalValue.Equal(decimal.RequireFromString("14000.00")) {
			t.Errorf("Expected total value 14000.00, got %s", records[0].TotalValue)
		}
		if records[1].HarvestEventID != "" {
			t.Errorf("Expected no harvest link on the buy, got %s", records[1].HarvestEventID)
		}
	})

	t.Run("filters by trade type", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/portfolio/trades",
			map[string]string{"type": "sell"},
		)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var records []model.TradeRecord
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&records)

		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].Ticker != "AAPL" {
			t.Errorf("Expected AAPL, got %s", records[0].Ticker)
		}
	})

	t.Run("returns 400 on an unknown trade type", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/portfolio/trades",
			map[string]string{"type": "short"},
		)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 on a malformed startDate", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/portfolio/trades",
			map[string]string{"startDate": "01-01-2025"},
		)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 when the date range is reversed", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/portfolio/trades",
			map[string]string{"startDate": "2025-04-01", "endDate": "2025-01-01"},
		)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 on a malformed days parameter", func(t *testing.T) {
		handler, _, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(
			http.MethodGet,
			"/api/v1/portfolio/trades",
			map[string]string{"days": "quarter"},
		)
		w := httptest.NewRecorder()

		handler.Trades(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
