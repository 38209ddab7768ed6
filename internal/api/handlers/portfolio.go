package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for the live account view.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// PositionResponse is a position with its derived values precomputed, so
// clients never redo the arithmetic.
type PositionResponse struct {
	Ticker                string          `json:"ticker"`
	Name                  string          `json:"name"`
	Shares                decimal.Decimal `json:"shares"`
	AvgCostPerShare       decimal.Decimal `json:"avgCostPerShare"`
	CurrentPrice          decimal.Decimal `json:"currentPrice"`
	MarketValue           decimal.Decimal `json:"marketValue"`
	CostBasis             decimal.Decimal `json:"costBasis"`
	UnrealizedGainLoss    decimal.Decimal `json:"unrealizedGainLoss"`
	UnrealizedGainLossPct decimal.Decimal `json:"unrealizedGainLossPct"`
	WashSaleUntil         *time.Time      `json:"washSaleUntil,omitempty"`
}

func toPositionResponse(position model.Position) PositionResponse {
	return PositionResponse{
		Ticker:                position.Ticker,
		Name:                  position.Name,
		Shares:                position.Shares,
		AvgCostPerShare:       position.AvgCostPerShare,
		CurrentPrice:          position.CurrentPrice,
		MarketValue:           position.MarketValue().Round(2),
		CostBasis:             position.CostBasis().Round(2),
		UnrealizedGainLoss:    position.UnrealizedGainLoss().Round(2),
		UnrealizedGainLossPct: position.UnrealizedGainLossPct(),
		WashSaleUntil:         position.WashSaleUntil,
	}
}

// Positions handles GET requests to list current holdings, largest market
// value first, with wash sale enrichment.
//
// Endpoint: GET /api/v1/portfolio/positions
// Response: 200 OK with array of PositionResponse
// Error: 500 Internal Server Error if the broker is unreachable
func (h *PortfolioHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolioService.GetPositions(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve positions", err.Error())
		return
	}

	responses := make([]PositionResponse, 0, len(positions))
	for _, position := range positions {
		responses = append(responses, toPositionResponse(position))
	}

	response.RespondJSON(w, http.StatusOK, responses)
}

// Position handles GET requests to retrieve one holding by ticker.
//
// Endpoint: GET /api/v1/portfolio/positions/{ticker}
// Response: 200 OK with PositionResponse
// Error: 400 Bad Request if the ticker is malformed
// Error: 404 Not Found if the ticker is not held
// Error: 500 Internal Server Error if the broker is unreachable
func (h *PortfolioHandler) Position(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := validation.ValidateTicker(ticker); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid ticker", err.Error())
		return
	}

	position, err := h.portfolioService.GetPosition(r.Context(), ticker)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve position")
		return
	}

	response.RespondJSON(w, http.StatusOK, toPositionResponse(position))
}

// Summary handles GET requests for the account-level view.
//
// Endpoint: GET /api/v1/portfolio/summary
// Response: 200 OK with PortfolioSummary
// Error: 500 Internal Server Error if the broker is unreachable
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolioService.GetSummary(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve portfolio summary", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Trades handles GET requests for filled-order history, newest first.
// Optional query parameters narrow the result.
//
// Endpoint: GET /api/v1/portfolio/trades?ticker=AAPL&type=sell&startDate=2025-01-01&endDate=2025-03-31&harvestOnly=true&days=90
// Response: 200 OK with array of TradeRecord
// Error: 400 Bad Request if a filter value is malformed
// Error: 500 Internal Server Error if the broker is unreachable
func (h *PortfolioHandler) Trades(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := model.TradeFilters{
		Ticker:      query.Get("ticker"),
		HarvestOnly: query.Get("harvestOnly") == "true",
	}

	if raw := query.Get("type"); raw != "" {
		tradeType := model.TradeAction(raw)
		if !tradeType.Valid() {
			response.RespondError(w, http.StatusBadRequest, "invalid trade type", raw)
			return
		}
		filters.TradeType = tradeType
	}
	if raw := query.Get("startDate"); raw != "" {
		start, err := validation.ValidateDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid startDate", err.Error())
			return
		}
		filters.StartDate = &start
	}
	if raw := query.Get("endDate"); raw != "" {
		end, err := validation.ValidateDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid endDate", err.Error())
			return
		}
		filters.EndDate = &end
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", "endDate is before startDate")
		return
	}

	days, err := intQueryParam(r, "days", 0)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid days parameter", err.Error())
		return
	}

	records, err := h.portfolioService.GetTradeHistory(r.Context(), filters, days)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve trade history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, records)
}
