package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/response"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
)

// parseJSON decodes a request body into the given request type. Extra
// fields are ignored: clients may post back whole response objects, such as
// a scan opportunity, and only the fields the request type names are used.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

// respondServiceError maps service-layer errors onto HTTP statuses:
// not-found sentinels to 404, invalid-state sentinels to 409, anything else
// to 500 with the fallback message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case apperrors.IsNotFound(err):
		response.RespondError(w, http.StatusNotFound, err.Error(), "")
	case apperrors.IsInvalidState(err):
		response.RespondError(w, http.StatusConflict, err.Error(), "")
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

// intQueryParam reads an integer query parameter, falling back to def when
// absent. Malformed values return an error rather than the fallback.
func intQueryParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return value, nil
}
