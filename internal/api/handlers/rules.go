package handlers

import (
	"net/http"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// RulesHandler handles HTTP requests for the harvest rules.
type RulesHandler struct {
	rulesService *service.RulesService
}

// NewRulesHandler creates a new RulesHandler with the provided service dependency.
func NewRulesHandler(rulesService *service.RulesService) *RulesHandler {
	return &RulesHandler{
		rulesService: rulesService,
	}
}

// GetRules handles GET requests for the current harvest rules. Defaults
// are returned until the operator saves an override.
//
// Endpoint: GET /api/v1/rules
// Response: 200 OK with RulesConfig
// Error: 500 Internal Server Error if retrieval fails
func (h *RulesHandler) GetRules(w http.ResponseWriter, _ *http.Request) {
	rules, err := h.rulesService.GetRules()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve rules", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, rules)
}

// UpdateRules handles PUT requests to replace the harvest rules wholesale.
// Partial updates are not supported: the next scan always runs against one
// coherent rules snapshot.
//
// Endpoint: PUT /api/v1/rules
// Request Body: UpdateRulesRequest (all thresholds)
// Response: 200 OK with the stored RulesConfig
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if persistence fails
func (h *RulesHandler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateRulesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateRules(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	rules := model.RulesConfig{
		MinLossUSD:         req.MinLossUSD,
		MinLossPct:         req.MinLossPct,
		MinTaxBenefit:      req.MinTaxBenefit,
		TaxRate:            req.TaxRate,
		MinHoldingDays:     req.MinHoldingDays,
		MaxHarvestPct:      req.MaxHarvestPct,
		WashSaleWindowDays: req.WashSaleWindowDays,
	}
	if err := h.rulesService.UpdateRules(rules); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to update rules", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, rules)
}
