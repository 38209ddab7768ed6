package handlers

import (
	"net/http"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// IndexHandler handles HTTP requests for the tracked index composition.
type IndexHandler struct {
	indexService *service.IndexService
}

// NewIndexHandler creates a new IndexHandler with the provided service dependency.
func NewIndexHandler(indexService *service.IndexService) *IndexHandler {
	return &IndexHandler{
		indexService: indexService,
	}
}

// Constituents handles GET requests to list index members, heaviest weight
// first.
//
// Endpoint: GET /api/v1/index/constituents
// Response: 200 OK with array of IndexConstituent
// Error: 500 Internal Server Error if retrieval fails
func (h *IndexHandler) Constituents(w http.ResponseWriter, _ *http.Request) {
	constituents, err := h.indexService.GetConstituents()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve index constituents", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, constituents)
}

// UpdateConstituents handles PUT requests to replace the entire index
// composition in one transaction.
//
// Endpoint: PUT /api/v1/index/constituents
// Request Body: UpdateConstituentsRequest (constituents: symbol, name, weight, sector)
// Response: 200 OK with the stored array of IndexConstituent
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the replacement fails
func (h *IndexHandler) UpdateConstituents(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateConstituentsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateConstituents(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	constituents, err := h.indexService.ReplaceConstituents(req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to update index constituents", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, constituents)
}

// Allocations handles GET requests for per-constituent target values
// against current holdings, largest drift first.
//
// Endpoint: GET /api/v1/index/allocations
// Response: 200 OK with array of TargetAllocation
// Error: 500 Internal Server Error if the broker is unreachable
func (h *IndexHandler) Allocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.indexService.GetTargetAllocations(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to compute target allocations", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, allocations)
}

// Sectors handles GET requests for constituent weight aggregated by
// sector, heaviest first.
//
// Endpoint: GET /api/v1/index/sectors
// Response: 200 OK with array of SectorSummary
// Error: 500 Internal Server Error if retrieval fails
func (h *IndexHandler) Sectors(w http.ResponseWriter, _ *http.Request) {
	sectors, err := h.indexService.GetSectorSummary()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve sector summary", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, sectors)
}

// TopHoldings handles GET requests for the n heaviest constituents.
//
// Endpoint: GET /api/v1/index/top-holdings?n=10
// Response: 200 OK with array of IndexConstituent
// Error: 400 Bad Request if n is malformed or negative
// Error: 500 Internal Server Error if retrieval fails
func (h *IndexHandler) TopHoldings(w http.ResponseWriter, r *http.Request) {
	n, err := intQueryParam(r, "n", 10)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid n parameter", err.Error())
		return
	}
	if n < 0 {
		response.RespondError(w, http.StatusBadRequest, "invalid n parameter", "n cannot be negative")
		return
	}

	holdings, err := h.indexService.GetTopHoldings(n)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve top holdings", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}
