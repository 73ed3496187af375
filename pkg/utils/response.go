package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"obra-control-backend/pkg/logger"
)

// ErrorResponse is the shared shape of every error body.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Pagination describes the collection-listing page window.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
	PerPage      int `json:"per_page"`
}

// NewPagination computes the pagination block for a page of size limit over
// total records.
func NewPagination(page, limit, total int) Pagination {
	totalPages := (total + limit - 1) / limit
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
		PerPage:      limit,
	}
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteError writes an error body with the shared shape.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Success: false, Message: message})
}

// WriteValidationError writes a 400 with per-field detail.
func WriteValidationError(w http.ResponseWriter, message string, errs []string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: message, Errors: errs})
}

// WriteAppError maps an error to its HTTP response. AppErrors keep their
// status and message; anything else is logged and reduced to a generic 500
// so no internal detail leaks to the client.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, ErrorResponse{Success: false, Message: appErr.Message, Errors: appErr.Errors})
		return
	}

	logger.Error().Err(err).Msg("unhandled error")
	WriteError(w, http.StatusInternalServerError, "Error interno del servidor")
}

// ParseJSONBody decodes the request body into v.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// GetQueryParam returns the query parameter or a default when absent.
func GetQueryParam(r *http.Request, key, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}
