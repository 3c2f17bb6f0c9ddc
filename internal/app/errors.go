package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"folio/api/internal/portfolio"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrRemoteUnavailable is returned by every mirror operation while the
// remote store is disabled or unreachable.
var ErrRemoteUnavailable = errors.New("remote store not available")

func notFound(what string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

func validationError(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

// invalid turns a portfolio validation error into a 422.
func invalid(err error) *DomainError {
	return validationError(strings.TrimPrefix(err.Error(), portfolio.ErrInvalid.Error()+": "))
}
