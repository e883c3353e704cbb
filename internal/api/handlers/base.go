package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/splitter"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *reconcile.Service
	logger *slog.Logger
}

// NewBase creates a new base handler over the reconciliation service.
func NewBase(svc *reconcile.Service, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{svc: svc, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps a service error to a response. Split amounts that
// do not add up are 400 validation_error, other rejected transitions 409,
// malformed input 400, missing documents 404 and anything else 500.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *linking.ValidationError
	switch {
	case errors.Is(err, splitter.ErrAmountMismatch),
		errors.Is(err, splitter.ErrPartCount),
		errors.Is(err, splitter.ErrPartSign):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.As(err, &verr):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(verr.Message))
	case errors.Is(err, reconcile.ErrInvalidInput):
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
	case reconcile.IsNotFound(err):
		b.WriteError(w, http.StatusNotFound, dto.NewAPIError(dto.ErrCodeNotFound, err.Error()))
	default:
		b.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// DecodeJSON reads the request body into v. An empty body leaves v as is.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return false
	}
	return true
}

// PayableType reads and checks the {payableType} URL parameter.
func (b *Base) PayableType(w http.ResponseWriter, r *http.Request) (model.EntityType, bool) {
	t := model.EntityType(chi.URLParam(r, "payableType"))
	if t != model.EntityRegistration && t != model.EntityExpense {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("payable type must be registration or expense"))
		return "", false
	}
	return t, true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
