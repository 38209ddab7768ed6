package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/request"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/validation"
)

// HarvestHandler handles HTTP requests for scanning and the harvest queue.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the scanner and execution services.
type HarvestHandler struct {
	scannerService   *service.ScannerService
	executionService *service.ExecutionService
}

// NewHarvestHandler creates a new HarvestHandler with the provided service dependencies.
func NewHarvestHandler(scannerService *service.ScannerService, executionService *service.ExecutionService) *HarvestHandler {
	return &HarvestHandler{
		scannerService:   scannerService,
		executionService: executionService,
	}
}

// Scan handles POST requests to scan the portfolio for harvest candidates.
// Returns qualifying opportunities ordered by tax benefit, trimmed to the
// harvest budget, without mutating the queue.
//
// Endpoint: POST /api/v1/scan
// Response: 200 OK with ScanResult
// Error: 500 Internal Server Error if the scan fails
func (h *HarvestHandler) Scan(w http.ResponseWriter, r *http.Request) {
	result, err := h.scannerService.Scan(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to scan portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// GetQueue handles GET requests to list harvest queue items, optionally
// narrowed to one lifecycle state.
//
// Endpoint: GET /api/v1/harvest/queue?status=pending
// Response: 200 OK with array of HarvestQueueItem
// Error: 400 Bad Request if status is not a known value
// Error: 500 Internal Server Error if retrieval fails
func (h *HarvestHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	status := model.HarvestStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		response.RespondError(w, http.StatusBadRequest, "invalid status", string(status))
		return
	}

	var (
		items []model.HarvestQueueItem
		err   error
	)
	if status != "" {
		items, err = h.scannerService.GetQueueByStatus(status)
	} else {
		items, err = h.scannerService.GetQueue()
	}
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve harvest queue", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, items)
}

// QueueHarvest handles POST requests to persist a scan opportunity as a
// pending queue item. Clients typically post back an opportunity object
// from a scan response.
//
// Endpoint: POST /api/v1/harvest/queue
// Request Body: QueueHarvestRequest (ticker, shares, currentPrice, costBasis, unrealizedLoss, estimatedTaxBenefit)
// Response: 201 Created with HarvestQueueItem
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if persistence fails
func (h *HarvestHandler) QueueHarvest(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.QueueHarvestRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateQueueHarvest(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	item, err := h.scannerService.AddToQueue(req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to queue harvest", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, item)
}

// GetQueueItem handles GET requests to retrieve a single queue item by ID.
//
// Endpoint: GET /api/v1/harvest/queue/{id}
// Response: 200 OK with HarvestQueueItem
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the queue item does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *HarvestHandler) GetQueueItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.scannerService.GetQueueItem(id)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve harvest queue item")
		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// ApproveHarvest handles POST requests to approve a pending queue item.
//
// Endpoint: POST /api/v1/harvest/queue/{id}/approve
// Response: 200 OK with the updated HarvestQueueItem
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the queue item does not exist
// Error: 409 Conflict if the queue item is not pending
func (h *HarvestHandler) ApproveHarvest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.scannerService.ApproveHarvest(id)
	if err != nil {
		respondServiceError(w, err, "failed to approve harvest")
		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// RejectHarvest handles POST requests to reject a pending queue item.
//
// Endpoint: POST /api/v1/harvest/queue/{id}/reject
// Response: 200 OK with the updated HarvestQueueItem
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the queue item does not exist
// Error: 409 Conflict if the queue item is not pending
func (h *HarvestHandler) RejectHarvest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.scannerService.RejectHarvest(id)
	if err != nil {
		respondServiceError(w, err, "failed to reject harvest")
		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// ExecuteHarvest handles POST requests to sell an approved queue item.
// A filled sell books the realized loss and creates the wash sale
// restriction in the same call. Broker failures come back as a failed
// execution result with 200, not as an HTTP error.
//
// Endpoint: POST /api/v1/harvest/queue/{id}/execute
// Response: 200 OK with ExecutionResult
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the queue item does not exist
// Error: 409 Conflict if the item is not approved or the ticker is restricted
// Error: 500 Internal Server Error if bookkeeping fails after the fill
func (h *HarvestHandler) ExecuteHarvest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.executionService.ExecuteHarvest(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to execute harvest")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// ClearExpired handles DELETE requests to prune stale pending queue items.
// Pending items created before today carry prices from an earlier session;
// a fresh scan regenerates anything still worth harvesting.
//
// Endpoint: DELETE /api/v1/harvest/queue/expired
// Response: 200 OK with {"removed": n}
// Error: 500 Internal Server Error if the sweep fails
func (h *HarvestHandler) ClearExpired(w http.ResponseWriter, _ *http.Request) {
	removed, err := h.scannerService.ClearExpiredPending()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to clear expired queue items", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
