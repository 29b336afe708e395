package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMappings translates domain sentinels to API error codes. Order
// matters only for readability; sentinels are disjoint.
var sentinelMappings = []struct {
	target error
	code   string
	status int
}{
	{domain.ErrServiceNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrTicketNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrCounterNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{domain.ErrInvalidState, "INVALID_STATE", http.StatusConflict},
	{domain.ErrNotCancellable, "INVALID_TRANSITION", http.StatusConflict},
	{domain.ErrQueueFull, "QUEUE_FULL", http.StatusConflict},
	{domain.ErrServiceUnavailable, "SERVICE_UNAVAILABLE", http.StatusConflict},
	{domain.ErrNoWaitingTicket, "NO_WAITING_TICKET", http.StatusConflict},
	{domain.ErrNoAvailableCounter, "NO_AVAILABLE_COUNTER", http.StatusConflict},
	{domain.ErrCounterBusy, "COUNTER_BUSY", http.StatusConflict},
	{domain.ErrBlacklisted, "BLACKLISTED", http.StatusForbidden},
	{domain.ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{domain.ErrConflict, "CONFLICT", http.StatusConflict},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinelMappings {
		if errors.Is(err, m.target) {
			return NewDomainError(m.code, m.target.Error(), m.status, nil)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
