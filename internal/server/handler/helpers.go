package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps known domain errors to HTTP status codes and writes
// the response. Unknown errors become a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, "wallet not connected")
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrActionInFlight):
		writeError(w, http.StatusConflict, "action already in flight for this token")
	case errors.Is(err, domain.ErrNotResolvable):
		writeError(w, http.StatusConflict, "listing is not resolvable")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrRelayRejected):
		writeError(w, http.StatusBadGateway, "relay rejected the request")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// tokenIDParam extracts the {id} path parameter as a token id.
func tokenIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// limitParam extracts a ?limit= query parameter. Defaults to 50, capped at
// 500.
func limitParam(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
