package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// WashSaleHandler handles HTTP requests for wash sale restrictions and
// rebuy resolution.
type WashSaleHandler struct {
	washSaleService  *service.WashSaleService
	executionService *service.ExecutionService
}

// NewWashSaleHandler creates a new WashSaleHandler with the provided service dependencies.
func NewWashSaleHandler(washSaleService *service.WashSaleService, executionService *service.ExecutionService) *WashSaleHandler {
	return &WashSaleHandler{
		washSaleService:  washSaleService,
		executionService: executionService,
	}
}

// WashSaleCheckResponse reports whether a ticker can be traded on a date
// without wash sale consequences.
type WashSaleCheckResponse struct {
	Ticker         string     `json:"ticker"`
	Date           string     `json:"date"`
	Restricted     bool       `json:"restricted"`
	WouldViolate   bool       `json:"wouldViolate"`
	ClearDate      *time.Time `json:"clearDate,omitempty"`
	DaysUntilClear *int       `json:"daysUntilClear,omitempty"`
}

// ListRestrictions handles GET requests to list wash sale restrictions,
// soonest restriction end first. With ?active=true only restrictions still
// in force today are returned.
//
// Endpoint: GET /api/v1/wash-sales?active=true
// Response: 200 OK with array of WashSaleRestriction
// Error: 500 Internal Server Error if retrieval fails
func (h *WashSaleHandler) ListRestrictions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	var restrictions any
	var err error
	if activeOnly {
		restrictions, err = h.washSaleService.GetActiveRestrictions(time.Now())
	} else {
		restrictions, err = h.washSaleService.GetAllRestrictions()
	}
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve wash sale restrictions", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, restrictions)
}

// PendingRebuys handles GET requests to list restrictions whose window has
// cleared but whose rebuy has not been resolved.
//
// Endpoint: GET /api/v1/wash-sales/pending-rebuys
// Response: 200 OK with array of WashSaleRestriction
// Error: 500 Internal Server Error if retrieval fails
func (h *WashSaleHandler) PendingRebuys(w http.ResponseWriter, _ *http.Request) {
	pending, err := h.washSaleService.GetPendingRebuys(time.Now())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve pending rebuys", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, pending)
}

// RestrictionsByTicker handles GET requests to list one ticker's
// restrictions, most recent sale first.
//
// Endpoint: GET /api/v1/wash-sales/ticker/{ticker}
// Response: 200 OK with array of WashSaleRestriction
// Error: 400 Bad Request if the ticker is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *WashSaleHandler) RestrictionsByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := validation.ValidateTicker(ticker); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid ticker", err.Error())
		return
	}

	restrictions, err := h.washSaleService.GetRestrictionsByTicker(ticker)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve wash sale restrictions", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, restrictions)
}

// Check handles GET requests asking whether trading a ticker on a date
// would have wash sale consequences. Restricted covers selling for a new
// harvest; wouldViolate covers buying inside the symmetric window of any
// recorded sale. The date defaults to today.
//
// Endpoint: GET /api/v1/wash-sales/check?ticker=NVDA&date=2025-04-01
// Response: 200 OK with WashSaleCheckResponse
// Error: 400 Bad Request if the ticker is missing or the date is malformed
// Error: 500 Internal Server Error if the check fails
func (h *WashSaleHandler) Check(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if err := validation.ValidateTicker(ticker); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid ticker", err.Error())
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := validation.ValidateDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
			return
		}
		date = parsed
	}

	restricted, err := h.washSaleService.IsRestricted(ticker, date)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to check restrictions", err.Error())
		return
	}
	wouldViolate, err := h.washSaleService.WouldViolate(ticker, date)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to check restrictions", err.Error())
		return
	}

	check := WashSaleCheckResponse{
		Ticker:       ticker,
		Date:         date.Format("2006-01-02"),
		Restricted:   restricted,
		WouldViolate: wouldViolate,
	}
	if restricted {
		check.ClearDate, err = h.washSaleService.GetClearDate(ticker, date)
		if err != nil {
			response.RespondError(w, http.StatusInternalServerError, "failed to check restrictions", err.Error())
			return
		}
		check.DaysUntilClear, err = h.washSaleService.DaysUntilClear(ticker, date)
		if err != nil {
			response.RespondError(w, http.StatusInternalServerError, "failed to check restrictions", err.Error())
			return
		}
	}

	response.RespondJSON(w, http.StatusOK, check)
}

// ExecuteRebuy handles POST requests to repurchase the shares sold under a
// cleared restriction. Broker failures come back as a failed execution
// result with 200, not as an HTTP error.
//
// Endpoint: POST /api/v1/wash-sales/{id}/rebuy
// Response: 200 OK with ExecutionResult
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the restriction does not exist
// Error: 409 Conflict if the window is still active or the rebuy is already resolved
func (h *WashSaleHandler) ExecuteRebuy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.executionService.ExecuteRebuy(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to execute rebuy")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// SkipRebuy handles POST requests to resolve a restriction's rebuy without
// trading.
//
// Endpoint: POST /api/v1/wash-sales/{id}/skip
// Response: 200 OK with the updated WashSaleRestriction
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the restriction does not exist
// Error: 409 Conflict if the rebuy is already resolved
func (h *WashSaleHandler) SkipRebuy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	restriction, err := h.executionService.SkipRebuy(id)
	if err != nil {
		respondServiceError(w, err, "failed to skip rebuy")
		return
	}

	response.RespondJSON(w, http.StatusOK, restriction)
}

// Cleanup handles DELETE requests to prune resolved restrictions older than
// the given number of days. Pending rebuys are never deleted.
//
// Endpoint: DELETE /api/v1/wash-sales/cleanup?days=90
// Response: 200 OK with {"removed": n}
// Error: 400 Bad Request if days is malformed or negative
// Error: 500 Internal Server Error if the sweep fails
func (h *WashSaleHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	days, err := intQueryParam(r, "days", 90)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid days parameter", err.Error())
		return
	}
	if days < 0 {
		response.RespondError(w, http.StatusBadRequest, "invalid days parameter", "days cannot be negative")
		return
	}

	removed, err := h.washSaleService.Cleanup(days, time.Now())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to clean up restrictions", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
