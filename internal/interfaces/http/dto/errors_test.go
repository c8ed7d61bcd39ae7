package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeNotFound:   http.StatusNotFound,
		ErrCodeValidation: http.StatusBadRequest,
		ErrCodeUpstream:   http.StatusBadGateway,
		ErrCodeNotReady:   http.StatusServiceUnavailable,
		ErrCodeInternal:   http.StatusInternalServerError,
		"ERR_SOMETHING":   http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, GetHTTPStatus(code), code)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "unknown country", "req-1")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "ERR_NOT_FOUND", "message": "unknown country", "request_id": "req-1"}
	}`, string(raw))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
		{Field: "max_count", Message: "Must be at most 100"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "max_count", resp.Error.Details[0].Field)
}

func TestNewSuccessResponse_OmitsEmpty(t *testing.T) {
	raw, err := json.Marshal(NewSuccessResponse([]string{"Thailand"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": ["Thailand"]}`, string(raw))
}
