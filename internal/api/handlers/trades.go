package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// TradeHandler handles HTTP requests for the trade review queue.
type TradeHandler struct {
	tradeQueue       *service.TradeQueueService
	executionService *service.ExecutionService
}

// NewTradeHandler creates a new TradeHandler with the provided service dependencies.
func NewTradeHandler(tradeQueue *service.TradeQueueService, executionService *service.ExecutionService) *TradeHandler {
	return &TradeHandler{
		tradeQueue:       tradeQueue,
		executionService: executionService,
	}
}

// TradeSummaryResponse reports queue counts alongside the monetary
// aggregates of what is awaiting review.
type TradeSummaryResponse struct {
	Counts          model.QueueSummary `json:"counts"`
	PendingNotional decimal.Decimal    `json:"pendingNotional"`
	TotalNotional   decimal.Decimal    `json:"totalNotional"`
	TotalTaxImpact  decimal.Decimal    `json:"totalTaxImpact"`
}

// ListTrades handles GET requests to list queued trades, newest first.
// Optional query parameters narrow by type or status.
//
// Endpoint: GET /api/v1/trades?type=harvest&status=pending
// Response: 200 OK with array of QueuedTrade
// Error: 400 Bad Request if type or status is not a known value
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	tradeType := model.TradeType(r.URL.Query().Get("type"))
	status := model.TradeStatus(r.URL.Query().Get("status"))

	if tradeType != "" && !tradeType.Valid() {
		response.RespondError(w, http.StatusBadRequest, "invalid trade type", string(tradeType))
		return
	}
	if status != "" && !status.Valid() {
		response.RespondError(w, http.StatusBadRequest, "invalid status", string(status))
		return
	}

	var trades []model.QueuedTrade
	switch {
	case tradeType != "":
		trades = h.tradeQueue.GetTradesByType(tradeType)
	case status != "":
		trades = h.tradeQueue.GetTradesByStatus(status)
	default:
		trades = h.tradeQueue.GetAllTrades()
	}

	// Both filters together: narrow the type result by status.
	if tradeType != "" && status != "" {
		filtered := trades[:0]
		for _, trade := range trades {
			if trade.Status == status {
				filtered = append(filtered, trade)
			}
		}
		trades = filtered
	}

	response.RespondJSON(w, http.StatusOK, trades)
}

// AddTrade handles POST requests to queue a trade for review. The trade's
// notional is fixed from the shares and price in this request.
//
// Endpoint: POST /api/v1/trades
// Request Body: AddTradeRequest (tradeType, action, symbol, shares, currentPrice, ...)
// Response: 201 Created with QueuedTrade
// Error: 400 Bad Request if validation fails or request body is invalid
func (h *TradeHandler) AddTrade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AddTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAddTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	trade := h.tradeQueue.AddTrade(req)
	response.RespondJSON(w, http.StatusCreated, trade)
}

// GetTrade handles GET requests to retrieve a single queued trade by ID.
//
// Endpoint: GET /api/v1/trades/{id}
// Response: 200 OK with QueuedTrade
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the trade does not exist
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trade, ok := h.tradeQueue.GetTrade(id)
	if !ok {
		response.RespondError(w, http.StatusNotFound, "queued trade not found", "")
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// ApproveTrade handles POST requests to approve a pending trade.
//
// Endpoint: POST /api/v1/trades/{id}/approve
// Response: 200 OK with the updated QueuedTrade
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the trade does not exist
// Error: 409 Conflict if the trade is not pending
func (h *TradeHandler) ApproveTrade(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tradeQueue.ApproveTrade, "trade is not pending")
}

// RejectTrade handles POST requests to reject a pending trade.
//
// Endpoint: POST /api/v1/trades/{id}/reject
// Response: 200 OK with the updated QueuedTrade
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the trade does not exist
// Error: 409 Conflict if the trade is not pending
func (h *TradeHandler) RejectTrade(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tradeQueue.RejectTrade, "trade is not pending")
}

// transition runs a bool-returning queue transition and maps the outcome:
// unknown ID to 404, refused transition to 409, success to the fresh trade.
func (h *TradeHandler) transition(w http.ResponseWriter, r *http.Request, op func(string) bool, conflictMsg string) {
	id := chi.URLParam(r, "id")

	if op(id) {
		trade, _ := h.tradeQueue.GetTrade(id)
		response.RespondJSON(w, http.StatusOK, trade)
		return
	}

	if _, ok := h.tradeQueue.GetTrade(id); !ok {
		response.RespondError(w, http.StatusNotFound, "queued trade not found", "")
		return
	}
	response.RespondError(w, http.StatusConflict, conflictMsg, "")
}

// RemoveTrade handles DELETE requests to drop a trade from the queue.
//
// Endpoint: DELETE /api/v1/trades/{id}
// Response: 204 No Content on successful removal
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the trade does not exist
func (h *TradeHandler) RemoveTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.tradeQueue.RemoveTrade(id) {
		response.RespondError(w, http.StatusNotFound, "queued trade not found", "")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ApproveAll handles POST requests to approve every pending trade,
// optionally limited to one trade type.
//
// Endpoint: POST /api/v1/trades/approve-all
// Request Body: BulkTradeRequest (tradeType optional)
// Response: 200 OK with {"approved": n}
// Error: 400 Bad Request if the trade type is not a known value
func (h *TradeHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BulkTradeRequest](r)
	if err != nil {
		req = request.BulkTradeRequest{}
	}

	if err := validation.ValidateBulkTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	count := h.tradeQueue.ApproveAll(model.TradeType(req.TradeType))
	response.RespondJSON(w, http.StatusOK, map[string]int{"approved": count})
}

// RejectAll handles POST requests to reject every pending trade, optionally
// limited to one trade type.
//
// Endpoint: POST /api/v1/trades/reject-all
// Request Body: BulkTradeRequest (tradeType optional)
// Response: 200 OK with {"rejected": n}
// Error: 400 Bad Request if the trade type is not a known value
func (h *TradeHandler) RejectAll(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BulkTradeRequest](r)
	if err != nil {
		req = request.BulkTradeRequest{}
	}

	if err := validation.ValidateBulkTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	count := h.tradeQueue.RejectAll(model.TradeType(req.TradeType))
	response.RespondJSON(w, http.StatusOK, map[string]int{"rejected": count})
}

// ClearTrades handles DELETE requests to drop every queued trade regardless
// of status. Executed trades live only in the queue, so clearing also
// discards their execution records.
//
// Endpoint: DELETE /api/v1/trades
// Response: 200 OK with {"removed": n}
func (h *TradeHandler) ClearTrades(w http.ResponseWriter, _ *http.Request) {
	removed := h.tradeQueue.Clear()
	response.RespondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// ExecuteTrade handles POST requests to submit one approved trade to the
// broker. Broker failures come back as a failed execution result with 200,
// not as an HTTP error.
//
// Endpoint: POST /api/v1/trades/{id}/execute
// Response: 200 OK with ExecutionResult
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the trade does not exist
// Error: 409 Conflict if the trade is not approved
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.executionService.ExecuteQueuedTrade(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to execute trade")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// ExecuteApproved handles POST requests to run every approved trade
// sequentially, oldest first.
//
// Endpoint: POST /api/v1/trades/execute
// Response: 200 OK with BatchExecutionResult
// Error: 500 Internal Server Error if the batch cannot start
func (h *TradeHandler) ExecuteApproved(w http.ResponseWriter, r *http.Request) {
	batch, err := h.executionService.ExecuteApprovedTrades(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to execute approved trades", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, batch)
}

// Summary handles GET requests for queue counts and monetary aggregates.
//
// Endpoint: GET /api/v1/trades/summary
// Response: 200 OK with TradeSummaryResponse
func (h *TradeHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	summary := TradeSummaryResponse{
		Counts:          h.tradeQueue.GetSummary(),
		PendingNotional: h.tradeQueue.TotalNotional(model.TradeStatusPending),
		TotalNotional:   h.tradeQueue.TotalNotional(""),
		TotalTaxImpact:  h.tradeQueue.TotalTaxImpact(""),
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
