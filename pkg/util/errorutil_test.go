package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func TestToDomainErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrServiceNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrTicketNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrCounterNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
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
	for _, tc := range tests {
		t.Run(tc.code+"/"+tc.err.Error(), func(t *testing.T) {
			mapped := ToDomainError(tc.err)
			require.NotNil(t, mapped)
			assert.Equal(t, tc.code, mapped.Code)
			assert.Equal(t, tc.status, mapped.HTTPStatus)
		})
	}
}

func TestToDomainErrorUnwrapsWrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("requesting ticket: %w", domain.ErrQueueFull)
	mapped := ToDomainError(wrapped)
	assert.Equal(t, "QUEUE_FULL", mapped.Code)
}

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewValidationError("bad input", map[string]any{"field": "name"})
	mapped := ToDomainError(original)
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
	assert.Equal(t, "name", mapped.Details["field"])
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	mapped := ToDomainError(errors.New("surprise"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}
