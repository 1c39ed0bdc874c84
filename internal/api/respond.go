package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/podushkina/taskflow/internal/service"
	"go.uber.org/zap"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status    int          `json:"status"`
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Path      string       `json:"path"`
	Timestamp time.Time    `json:"timestamp"`
	Errors    []FieldError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string, fields []FieldError) {
	respondJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
		Errors:    fields,
	})
}

// writeError maps service and validation errors onto HTTP responses. Anything it
// does not recognise is logged in full and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		respondError(w, r, http.StatusBadRequest, "Validation failed", fieldErrors(verrs))
	case errors.Is(err, service.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error(), nil)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, r, http.StatusInternalServerError, "An unexpected error occurred", nil)
	}
}

func fieldErrors(verrs validation.Errors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for field, err := range verrs {
		if err == nil {
			continue
		}
		out = append(out, FieldError{Field: field, Message: err.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
