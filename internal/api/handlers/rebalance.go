package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// Rebalance plan defaults: recommend trades for symbols drifted more than
// 5% from target, capped at 10 trades per plan.
var (
	defaultThresholdPct = decimal.NewFromInt(5)
	defaultMinLoss      = decimal.NewFromInt(100)
)

const defaultMaxTrades = 10

// RebalanceHandler handles HTTP requests for rebalance planning and
// harvest estimation.
type RebalanceHandler struct {
	rebalanceService *service.RebalanceService
	indexService     *service.IndexService
}

// NewRebalanceHandler creates a new RebalanceHandler with the provided service dependencies.
func NewRebalanceHandler(rebalanceService *service.RebalanceService, indexService *service.IndexService) *RebalanceHandler {
	return &RebalanceHandler{
		rebalanceService: rebalanceService,
		indexService:     indexService,
	}
}

// Plan handles POST requests to generate a rebalance plan against the
// tracked index. Omitted fields fall back to the defaults (5% threshold,
// 10 trades). The plan only proposes; nothing is queued or executed.
//
// Endpoint: POST /api/v1/rebalance/plan
// Request Body: RebalancePlanRequest (thresholdPct, maxTrades; both optional)
// Response: 200 OK with RebalancePlan
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if plan generation fails
func (h *RebalanceHandler) Plan(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.RebalancePlanRequest](r)
	if err != nil {
		req = request.RebalancePlanRequest{}
	}

	if err := validation.ValidateRebalancePlan(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if req.ThresholdPct.IsZero() {
		req.ThresholdPct = defaultThresholdPct
	}
	if req.MaxTrades == 0 {
		req.MaxTrades = defaultMaxTrades
	}

	targets, err := h.indexService.TargetValues(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to compute index targets", err.Error())
		return
	}

	plan, err := h.rebalanceService.GenerateRebalancePlan(r.Context(), targets, req.ThresholdPct, req.MaxTrades)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to generate rebalance plan", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, plan)
}

// HarvestOpportunities handles GET requests for full-liquidation harvest
// recommendations, biggest loss first.
//
// Endpoint: GET /api/v1/rebalance/harvest-opportunities?minLoss=100
// Response: 200 OK with array of TradeRecommendation
// Error: 400 Bad Request if minLoss is malformed or negative
// Error: 500 Internal Server Error if retrieval fails
func (h *RebalanceHandler) HarvestOpportunities(w http.ResponseWriter, r *http.Request) {
	minLoss := defaultMinLoss
	if raw := r.URL.Query().Get("minLoss"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.Sign() < 0 {
			response.RespondError(w, http.StatusBadRequest, "invalid minLoss parameter", raw)
			return
		}
		minLoss = parsed
	}

	opportunities, err := h.rebalanceService.GetHarvestOpportunities(r.Context(), minLoss)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve harvest opportunities", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, opportunities)
}

// TaxSavings handles GET requests estimating the tax benefit of harvesting
// every currently unblocked loss.
//
// Endpoint: GET /api/v1/rebalance/tax-savings
// Response: 200 OK with {"estimatedAnnualSavings": "123.45"}
// Error: 500 Internal Server Error if estimation fails
func (h *RebalanceHandler) TaxSavings(w http.ResponseWriter, r *http.Request) {
	savings, err := h.rebalanceService.EstimateAnnualTaxSavings(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to estimate tax savings", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]decimal.Decimal{"estimatedAnnualSavings": savings})
}
