package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

// ExecutionHandler handles HTTP requests for execution reporting.
type ExecutionHandler struct {
	executionService *service.ExecutionService
}

// NewExecutionHandler creates a new ExecutionHandler with the provided service dependency.
func NewExecutionHandler(executionService *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
	}
}

// Summary handles GET requests for one tax year's harvesting totals. The
// year defaults to the current one; a year with no activity summarizes to
// zeros.
//
// Endpoint: GET /api/v1/executions/summary?year=2025
// Response: 200 OK with ExecutionSummary
// Error: 400 Bad Request if year is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *ExecutionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year, err := intQueryParam(r, "year", time.Now().Year())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid year parameter", err.Error())
		return
	}

	summary, err := h.executionService.GetExecutionSummary(year)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve execution summary", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
