package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkedErrorsKeepTheirKind(t *testing.T) {
	err := NewError("subscription not found").
		WithHint("Subscription not found").
		WithReportableDetails(map[string]interface{}{"subscription_id": "subs_1"}).
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))

	wrapped := fmt.Errorf("loading subscription: %w", err)
	assert.True(t, IsNotFound(wrapped))
}

func TestWithErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WithError(cause).
		WithHint("Failed to reach database").
		Mark(ErrDatabase)

	assert.True(t, IsDatabase(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		kind error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"invalid operation", ErrInvalidOperation, http.StatusBadRequest},
		{"permission denied", ErrPermissionDenied, http.StatusForbidden},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"database", ErrDatabase, http.StatusInternalServerError},
		{"system", ErrSystem, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("boom").Mark(tt.kind)
			assert.Equal(t, tt.want, HTTPStatusFromErr(err))
		})
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(fmt.Errorf("plain")))
}

func TestNewErrorResponse(t *testing.T) {
	err := NewError("invalid frequency").
		WithHint("Frequency must be one of: daily, weekly, monthly, yearly").
		WithReportableDetails(map[string]interface{}{"frequency": "hourly"}).
		Mark(ErrValidation)

	resp := NewErrorResponse(err, false)
	assert.False(t, resp.Success)
	assert.Equal(t, "Frequency must be one of: daily, weekly, monthly, yearly", resp.Error.Display)
	assert.Equal(t, "hourly", resp.Error.Details["frequency"])
	assert.Empty(t, resp.Error.InternalError)

	resp = NewErrorResponse(err, true)
	assert.Contains(t, resp.Error.InternalError, "invalid frequency")
}

func TestNewErrorResponse_NoHintFallsBackToStatusText(t *testing.T) {
	resp := NewErrorResponse(NewError("x").Mark(ErrNotFound), false)
	assert.Equal(t, http.StatusText(http.StatusNotFound), resp.Error.Display)
}

func TestGetReportableDetails_OuterWins(t *testing.T) {
	inner := NewError("inner").
		WithReportableDetails(map[string]interface{}{"k": "inner", "only_inner": 1}).
		Err()
	outer := WithError(inner).
		WithReportableDetails(map[string]interface{}{"k": "outer"}).
		Err()

	details := GetReportableDetails(outer)
	require.Len(t, details, 2)
	assert.Equal(t, "outer", details["k"])
	assert.Equal(t, 1, details["only_inner"])
}
