package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeValidation, http.StatusUnprocessableEntity},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeInvalidTransition, http.StatusUnprocessableEntity},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeHasDependencies, http.StatusConflict},
		{"ALREADY_EXISTS", http.StatusConflict},
		{ErrCodeForbidden, http.StatusForbidden},
		{"INVALID_CREDENTIALS", http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{shared.CodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewDomainErrorResponse_Transition(t *testing.T) {
	err := shared.NewTransitionError("open", "delivered", []string{"in_progress", "cancelled"})

	body, jerr := json.Marshal(NewDomainErrorResponse(err, "req-1"))
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "req-1", decoded["request_id"])
	assert.Equal(t, []any{"in_progress", "cancelled"}, decoded["allowed"])

	info := decoded["error"].(map[string]any)
	assert.Equal(t, shared.CodeInvalidTransition, info["code"])
	assert.Contains(t, info["message"], "Cannot change status from open to delivered")
}

func TestNewDomainErrorResponse_EmptyAllowed(t *testing.T) {
	resp := NewDomainErrorResponse(shared.NewTransitionError("cancelled", "open", nil), "")
	require.NotNil(t, resp.Allowed)
	assert.Empty(t, resp.Allowed)

	body, err := json.Marshal(NewDomainErrorResponse(shared.ErrNotFound, ""))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "allowed")
	assert.NotContains(t, string(body), "details")
}

func TestNewDomainErrorResponse_Details(t *testing.T) {
	err := shared.NewDomainError(shared.CodeHasDependencies, "Customer has linked records").
		WithDetail("work_orders", int64(2))

	resp := NewDomainErrorResponse(err, "")
	assert.Equal(t, int64(2), resp.Error.Details["work_orders"])
	assert.Nil(t, resp.Allowed)
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse(shared.NewPaginated[string](nil, 41, 3, 20))

	assert.True(t, resp.Success)
	assert.Equal(t, []string{}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1}, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta([]int{1}, 21, 1, 10)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
