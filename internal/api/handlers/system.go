package handlers

import (
	"net/http"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Broker   string `json:"broker"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity.
// The broker field reports which backend is configured, not a live probe;
// broker reachability surfaces through the endpoints that actually call it.
//
// Endpoint: GET /api/v1/system/health
// Response: 200 OK with HealthResponse, 503 Service Unavailable when the database is down
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		health := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Broker:   h.systemService.BrokerBackend(),
			Error:    err.Error(),
		}
		response.RespondJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	health := HealthResponse{
		Status:   "healthy",
		Database: "connected",
		Broker:   h.systemService.BrokerBackend(),
	}
	response.RespondJSON(w, http.StatusOK, health)
}
