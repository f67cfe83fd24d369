package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/quotespell/internal/domain"
)

type errorResponse struct {
	Error   string        `json:"error"`
	Details []fieldDetail `json:"details,omitempty"`
}

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeValidation(w http.ResponseWriter, verr *domain.ValidationError) {
	resp := errorResponse{Error: "validation failed"}
	for _, fe := range verr.Errors {
		resp.Details = append(resp.Details, fieldDetail{Field: fe.Field, Message: fe.Message})
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// writeServiceError maps domain sentinels to HTTP statuses. Unexpected
// errors are logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrCatalogAuth):
		log.ErrorContext(r.Context(), "catalog auth failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "catalog unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(r.Context(), "request cancelled", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.ErrorContext(r.Context(), "request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
