package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/citypulse/transit-feedback/internal/logging"
	"github.com/citypulse/transit-feedback/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Internal errors never leak their message to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5MB.")
		return
	}

	svcErr, ok := services.AsServiceError(err)
	if !ok {
		logging.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch svcErr.Code {
	case services.ErrorInvalid:
		writeError(w, http.StatusBadRequest, svcErr.Message)
	case services.ErrorNotFound:
		writeError(w, http.StatusNotFound, svcErr.Message)
	case services.ErrorPayloadTooLarge:
		writeError(w, http.StatusRequestEntityTooLarge, svcErr.Message)
	default:
		logging.Error().Err(err).Msg("service failure")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
