package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/status"
)

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.True(t, errors.As(err, &apiErr), "expected an ApiError, got %T", err)
	return apiErr.Status
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"event not found", status.ErrEventNotFound, http.StatusNotFound},
		{"ticket not found", status.ErrTicketNotFound, http.StatusNotFound},
		{"access denied", status.ErrAccessDenied, http.StatusForbidden},
		{"not eligible", status.ErrNotEligible, http.StatusForbidden},
		{"capacity full", status.ErrCapacityFull, http.StatusBadRequest},
		{"already registered", status.ErrAlreadyRegistered, http.StatusBadRequest},
		{"insufficient stock", status.ErrInsufficientStock, http.StatusBadRequest},
		{"wrong payment state", status.ErrWrongPaymentState, http.StatusBadRequest},
		{"deadline passed", status.ErrDeadlinePassed, http.StatusBadRequest},
		{"invalid tag", status.ErrInvalidTag, http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiStatus(t, fail("test", tt.err)))
		})
	}
}

func TestFail_WrappedSentinelKeepsMessageAndStatus(t *testing.T) {
	err := status.E(status.ErrInsufficientStock, `Insufficient stock for "Mug" (std/white). Available: 0`)

	mapped := fail("test", err)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, mapped))

	var apiErr *router.ApiError
	require.True(t, errors.As(mapped, &apiErr))
	// ApiError sentenizes messages, so match on the substance.
	assert.Contains(t, apiErr.Message, `Insufficient stock for "Mug" (std/white)`)
}

func TestFail_ParametrizedBadRequest(t *testing.T) {
	err := status.E(status.ErrMissingField, `Required field "Team Name" is missing`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, fail("test", err)))
}
