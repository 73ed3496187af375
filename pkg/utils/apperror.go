package utils

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/lib/pq"
)

// AppError is an error that already knows the HTTP status it maps to.
// Everything else reaching the response boundary becomes a generic 500.
type AppError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(message string, errs ...string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Errors: errs}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

// uniqueViolation is the Postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, so handlers can answer with a conflict instead of a 500.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// IsNotFound reports whether err is the driver's empty-result sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
