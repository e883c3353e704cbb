package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/splitter"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

func TestBase_WriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "split amounts",
			err:        &linking.ValidationError{Reason: splitter.ErrAmountMismatch, Message: "parts sum to 20.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "rejected transition",
			err:        &linking.ValidationError{Reason: linking.ErrParentTransaction, Message: "transaction t1 is split"},
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeConflict,
		},
		{
			name:       "invalid input",
			err:        fmt.Errorf("%w: payable type", reconcile.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "missing document",
			err:        fmt.Errorf("get registration r1: %w", storage.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "anything else",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternalError,
		},
	}

	b := NewBase(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
			rec := httptest.NewRecorder()

			b.WriteServiceError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var apiErr dto.APIError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestParseParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?dry_run=1&limit=5&bad=x", nil)

	assert.True(t, ParseBoolParam(req, "dry_run", false))
	assert.False(t, ParseBoolParam(req, "missing", false))
	assert.Equal(t, 5, ParseIntParam(req, "limit", 10))
	assert.Equal(t, 10, ParseIntParam(req, "bad", 10))
}
