package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubledger/reconcile/internal/api"
	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

var day0 = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveEvent(&model.Event{ID: "evt1", Name: "Souper", Date: day0, Price: decimal.NewFromInt(7)}))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := reconcile.NewService(repo, reconcile.Options{Matching: matcher.DefaultConfig()}, logger)
	return api.NewServer(api.DefaultConfig(), svc, logger), repo
}

func seedRegistration(t *testing.T, repo *storage.MockRepository, id, name, amount string, dayOffset int) {
	t.Helper()
	require.NoError(t, repo.SaveRegistration(&model.Registration{
		ID:           id,
		EventID:      "evt1",
		Name:         name,
		Amount:       decimal.RequireFromString(amount),
		RegisteredAt: day0.AddDate(0, 0, dayOffset),
	}))
}

func seedTransaction(t *testing.T, repo *storage.MockRepository, id, amount, counterparty string, dayOffset int) {
	t.Helper()
	require.NoError(t, repo.SaveTransaction(&model.Transaction{
		ID:           id,
		Amount:       decimal.RequireFromString(amount),
		Date:         day0.AddDate(0, 0, dayOffset),
		Counterparty: counterparty,
	}))
}

func do(t *testing.T, server *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, "ok", response.Status)
	assert.False(t, response.AI)
}

func TestServer_LinkLifecycle(t *testing.T) {
	server, repo := newTestServer(t)
	seedRegistration(t, repo, "r1", "Jean Dupont", "7.00", 0)
	seedTransaction(t, repo, "t1", "7.00", "DUPONT JEAN", 1)

	t.Run("POST /api/links links payable and transaction", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/links", dto.LinkRequest{
			PayableType:   "registration",
			PayableID:     "r1",
			TransactionID: "t1",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		p := decode[dto.PayableResponse](t, rec)
		assert.Equal(t, "linked_bank", p.Status)
		assert.Equal(t, "t1", p.TransactionID)
	})

	t.Run("GET /api/transactions/:id shows the link", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/transactions/t1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		tx := decode[dto.TransactionResponse](t, rec)
		assert.True(t, tx.Reconciled)
		assert.Equal(t, 1, tx.Links)
	})

	t.Run("linked payable cannot be marked unpaid", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/payables/registration/r1/unpaid", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeConflict, decode[dto.APIError](t, rec).Code)
	})

	t.Run("DELETE /api/links with mark_unpaid", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/api/links/registration/r1?mark_unpaid=true", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "unpaid", decode[dto.PayableResponse](t, rec).Status)
		tx, err := repo.GetTransaction("t1")
		require.NoError(t, err)
		assert.False(t, tx.Reconciled)
	})

	t.Run("POST cash records the comment", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/payables/registration/r1/cash", dto.CashRequest{Comment: "bar"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "paid_cash", decode[dto.PayableResponse](t, rec).Status)
		r, err := repo.GetRegistration("r1")
		require.NoError(t, err)
		assert.Equal(t, "bar", r.Comment)
	})
}

func TestServer_LinkErrors(t *testing.T) {
	server, repo := newTestServer(t)
	seedRegistration(t, repo, "r1", "Jean Dupont", "7.00", 0)
	require.NoError(t, repo.SaveTransaction(&model.Transaction{
		ID: "parent", Amount: decimal.NewFromInt(14), Date: day0, IsParent: true,
	}))

	tests := []struct {
		name       string
		req        dto.LinkRequest
		wantStatus int
		wantCode   string
	}{
		{"missing ids", dto.LinkRequest{PayableType: "registration"}, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"bad payable type", dto.LinkRequest{PayableType: "event", PayableID: "evt1", TransactionID: "parent"}, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unknown transaction", dto.LinkRequest{PayableType: "registration", PayableID: "r1", TransactionID: "nope"}, http.StatusNotFound, dto.ErrCodeNotFound},
		{"parent transaction", dto.LinkRequest{PayableType: "registration", PayableID: "r1", TransactionID: "parent"}, http.StatusConflict, dto.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, http.MethodPost, "/api/links", tt.req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode[dto.APIError](t, rec).Code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad payable type in path", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/payables/member/m1/cash", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Quality(t *testing.T) {
	server, repo := newTestServer(t)
	seedRegistration(t, repo, "r1", "Jean Dupont", "7.00", 0)
	seedTransaction(t, repo, "t1", "7.00", "DUPONT JEAN", 0)

	rec := do(t, server, http.MethodGet, "/api/payables/registration/r1/quality/t1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[matcher.Quality](t, rec)
	assert.Equal(t, 100, q.AmountMatch)
	assert.GreaterOrEqual(t, q.NameMatch, 90)
}

func TestServer_AutoMatch(t *testing.T) {
	setup := func(t *testing.T) (*api.Server, *storage.MockRepository) {
		server, repo := newTestServer(t)
		seedRegistration(t, repo, "r1", "Jean Dupont", "7.00", 0)
		seedRegistration(t, repo, "r2", "Anne Peeters", "7.00", 1)
		seedTransaction(t, repo, "t1", "7.00", "DUPONT JEAN", 3)
		seedTransaction(t, repo, "t2", "7.20", "PEETERS ANNE", 4)
		repo.ResetCounters()
		return server, repo
	}

	t.Run("links with default options", func(t *testing.T) {
		server, repo := setup(t)

		rec := do(t, server, http.MethodPost, "/api/events/evt1/automatch", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.AutoMatchResponse](t, rec)
		assert.Equal(t, 2, resp.Linked)
		require.Len(t, resp.Matches, 2)
		assert.Equal(t, string(matcher.TierExact), resp.Matches[0].Tier)
		assert.Equal(t, "14.00", resp.TotalAmount)
		r, err := repo.GetRegistration("r2")
		require.NoError(t, err)
		assert.Equal(t, "t2", r.TransactionID)
	})

	t.Run("dry run with a tighter tolerance", func(t *testing.T) {
		server, repo := setup(t)
		tolerance := decimal.RequireFromString("0.10")

		rec := do(t, server, http.MethodPost, "/api/events/evt1/automatch", dto.AutoMatchRequest{
			AmountTolerance: &tolerance,
			DryRun:          true,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.AutoMatchResponse](t, rec)
		assert.True(t, resp.DryRun)
		assert.Len(t, resp.Matches, 1)
		assert.Zero(t, resp.Linked)
		assert.Zero(t, repo.TotalWrites())
	})

	t.Run("unknown event", func(t *testing.T) {
		server, _ := setup(t)

		rec := do(t, server, http.MethodPost, "/api/events/nope/automatch", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Split(t *testing.T) {
	t.Run("equal parts", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTransaction(t, repo, "t1", "21.00", "DUPONT FAMILLE", 0)

		rec := do(t, server, http.MethodPost, "/api/transactions/t1/split", dto.SplitRequest{Count: 3})

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decode[dto.SplitResponse](t, rec)
		require.Len(t, resp.Children, 3)
		for _, c := range resp.Children {
			assert.Equal(t, "7.00", c.Amount)
			assert.Equal(t, "t1", c.ParentTransactionID)
		}
	})

	t.Run("amounts that do not add up", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTransaction(t, repo, "t1", "21.00", "DUPONT FAMILLE", 0)

		rec := do(t, server, http.MethodPost, "/api/transactions/t1/split", dto.SplitRequest{
			Amounts: []decimal.Decimal{decimal.NewFromInt(7), decimal.NewFromInt(10)},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("no split mode", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTransaction(t, repo, "t1", "21.00", "DUPONT FAMILLE", 0)

		rec := do(t, server, http.MethodPost, "/api/transactions/t1/split", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_Categorization(t *testing.T) {
	server, repo := newTestServer(t)
	require.NoError(t, repo.SaveTransaction(&model.Transaction{
		ID:            "t1",
		Amount:        decimal.NewFromInt(90),
		Date:          day0,
		Counterparty:  "MME M LAMBERT",
		Communication: "Lifras cotisation",
	}))

	rec := do(t, server, http.MethodGet, "/api/transactions/t1/categorization", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.CategorizationResponse](t, rec)
	assert.Equal(t, "cotisation", resp.Result.Category)
	assert.Empty(t, resp.Suggestions)

	rec = do(t, server, http.MethodPost, "/api/transactions/t1/categorization", dto.CategorizationRequest{
		Category:    "cotisation",
		AccountCode: "730000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.PatternResponse](t, rec).UseCount)

	rec = do(t, server, http.MethodGet, "/api/transactions/t1/categorization", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.CategorizationResponse](t, rec).Suggestions, 1)

	rec = do(t, server, http.MethodPost, "/api/transactions/t1/categorization", dto.CategorizationRequest{Category: "cotisation"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AIWithoutProvider(t *testing.T) {
	server, repo := newTestServer(t)
	seedRegistration(t, repo, "r1", "Jean Dupont", "7.00", 0)
	seedTransaction(t, repo, "t1", "7.00", "DUPONT JEAN", 0)

	rec := do(t, server, http.MethodPost, "/api/events/evt1/ai-suggestions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, server, http.MethodPost, "/api/transactions/t1/ai-suggestion", dto.AISuggestionRequest{EventID: "evt1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.AISuggestionResponse](t, rec)
	assert.False(t, resp.Found)
	assert.NotEmpty(t, resp.Result.Reason)
}

func TestServer_Repair(t *testing.T) {
	server, repo := newTestServer(t)
	require.NoError(t, repo.SaveTransaction(&model.Transaction{
		ID:              "t1",
		Amount:          decimal.NewFromInt(7),
		Date:            day0,
		Reconciled:      true,
		MatchedEntities: []model.MatchedEntity{{EntityType: model.EntityRegistration, EntityID: "gone"}},
	}))
	repo.ResetCounters()

	t.Run("dry run writes nothing", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/repair?dry_run=true", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		report := decode[map[string]any](t, rec)
		assert.Equal(t, true, report["dry_run"])
		assert.EqualValues(t, 1, report["links_removed"])
		assert.Zero(t, repo.TotalWrites())
	})

	t.Run("repair removes the dangling link", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/repair", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		tx, err := repo.GetTransaction("t1")
		require.NoError(t, err)
		assert.Empty(t, tx.MatchedEntities)
		assert.False(t, tx.Reconciled)
	})

	t.Run("reconciled flag pass is clean afterwards", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/repair/reconciled", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 0, decode[map[string]any](t, rec)["reconciled_fixed"])
	})
}

func TestServer_CleanupLinks(t *testing.T) {
	server, repo := newTestServer(t)
	require.NoError(t, repo.SaveTransaction(&model.Transaction{
		ID:              "t1",
		Amount:          decimal.NewFromInt(7),
		Date:            day0,
		Reconciled:      true,
		MatchedEntities: []model.MatchedEntity{{EntityType: model.EntityRegistration, EntityID: "r9"}},
	}))

	rec := do(t, server, http.MethodDelete, "/api/entities/registration/r9/links", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["links_removed"])
	tx, err := repo.GetTransaction("t1")
	require.NoError(t, err)
	assert.Empty(t, tx.MatchedEntities)

	rec = do(t, server, http.MethodDelete, "/api/entities/widget/w1/links", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/api/transactions/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
}
