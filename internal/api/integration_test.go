package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

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

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests use a real SQLite database for the full stack:
// HTTP request → Router → Handlers → Service → Storage → SQLite

func createTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "api_integration.db"))
	require.NoError(t, err)

	svc := reconcile.NewService(store, reconcile.Options{Matching: matcher.DefaultConfig()}, nil)
	server := api.NewServer(api.DefaultConfig(), svc, nil) // nil logger = use default

	ts := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return ts, store
}

func post(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestAPI_Integration_AutoMatchThenRepair(t *testing.T) {
	ts, store := createTestServer(t)

	require.NoError(t, store.SaveEvent(&model.Event{ID: "evt1", Name: "Souper", Date: day0, Price: decimal.NewFromInt(7)}))
	require.NoError(t, store.SaveRegistration(&model.Registration{
		ID: "r1", EventID: "evt1", Name: "Jean Dupont", Amount: decimal.NewFromInt(7), RegisteredAt: day0,
	}))
	require.NoError(t, store.SaveRegistration(&model.Registration{
		ID: "r2", EventID: "evt1", Name: "Anne Peeters", Amount: decimal.NewFromInt(7), RegisteredAt: day0,
	}))
	require.NoError(t, store.SaveTransaction(&model.Transaction{
		ID: "t1", Amount: decimal.NewFromInt(7), Date: day0.AddDate(0, 0, 2), Counterparty: "DUPONT JEAN",
	}))

	// Auto-match links r1 and leaves r2 open
	resp := post(t, ts, "/api/events/evt1/automatch", dto.AutoMatchRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report dto.AutoMatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 1, report.Linked)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "r2", report.Unmatched[0].ID)

	r1, err := store.GetRegistration("r1")
	require.NoError(t, err)
	assert.Equal(t, "t1", r1.TransactionID)
	tx, err := store.GetTransaction("t1")
	require.NoError(t, err)
	assert.True(t, tx.Reconciled)
	require.Len(t, tx.MatchedEntities, 1)
	assert.Equal(t, model.MatchedByAuto, tx.MatchedEntities[0].MatchedBy)

	// Deleting the registration leaves a dangling link until cleanup runs
	require.NoError(t, store.DeleteRegistration("r1"))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/entities/registration/r1/links", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	tx, err = store.GetTransaction("t1")
	require.NoError(t, err)
	assert.Empty(t, tx.MatchedEntities)
	assert.False(t, tx.Reconciled)

	// Nothing left to repair
	resp = post(t, ts, "/api/repair?dry_run=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sweep map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sweep))
	assert.EqualValues(t, 0, sweep["links_removed"])
	assert.EqualValues(t, 0, sweep["reconciled_fixed"])
}

func TestAPI_Integration_SplitAndLinkChild(t *testing.T) {
	ts, store := createTestServer(t)

	require.NoError(t, store.SaveExpense(&model.Expense{
		ID: "e1", Claimant: "Luc Martin", Description: "Gonflage", Amount: decimal.NewFromInt(12), SubmittedAt: day0,
	}))
	require.NoError(t, store.SaveTransaction(&model.Transaction{
		ID: "t1", Amount: decimal.NewFromInt(-24), Date: day0, Counterparty: "MARTIN LUC",
	}))

	resp := post(t, ts, "/api/transactions/t1/split", dto.SplitRequest{Count: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var split dto.SplitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&split))
	require.Len(t, split.Children, 2)
	assert.Equal(t, "-12.00", split.Children[0].Amount)

	// The parent can no longer be linked, a child can
	resp = post(t, ts, "/api/links", dto.LinkRequest{PayableType: "expense", PayableID: "e1", TransactionID: "t1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post(t, ts, "/api/links", dto.LinkRequest{PayableType: "expense", PayableID: "e1", TransactionID: split.Children[0].ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e1, err := store.GetExpense("e1")
	require.NoError(t, err)
	assert.Equal(t, split.Children[0].ID, e1.TransactionID)
}
