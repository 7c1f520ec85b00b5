package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmm/mint-amazon-tagger/internal/api"
	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "tagger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewServer(store, logger), store
}

func doRequest(t *testing.T, server *api.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
}

func TestServer_Runs(t *testing.T) {
	t.Run("GET /api/v1/runs returns runs", func(t *testing.T) {
		server, store := newTestServer(t)
		id, err := store.StartRun(true)
		require.NoError(t, err)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/runs", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Runs []*storage.RunRecord `json:"runs"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Runs, 1)
		assert.Equal(t, id, response.Runs[0].ID)
	})

	t.Run("GET /api/v1/runs/:id returns single run", func(t *testing.T) {
		server, store := newTestServer(t)
		id, err := store.StartRun(false)
		require.NoError(t, err)
		stats := tagger.NewStats()
		stats.Add(tagger.NewTag)
		require.NoError(t, store.CompleteRun(&storage.RunRecord{ID: id, Success: true, Stats: stats}))

		rec := doRequest(t, server, http.MethodGet, "/api/v1/runs/"+id, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var run storage.RunRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
		assert.Equal(t, id, run.ID)
		assert.True(t, run.Success)
		assert.Equal(t, 1, run.Stats[tagger.NewTag])
	})

	t.Run("GET /api/v1/runs/:id returns 404 for missing run", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/runs/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Stats(t *testing.T) {
	server, store := newTestServer(t)
	id, err := store.StartRun(false)
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(&storage.RunRecord{
		ID: id, Success: true, UpdateCount: 4, Stats: tagger.NewStats(),
	}))

	rec := doRequest(t, server, http.MethodGet, "/api/v1/stats", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var agg storage.AggregateStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&agg))
	assert.Equal(t, 1, agg.TotalRuns)
	assert.Equal(t, 4, agg.TotalUpdates)
}

func TestServer_SkipList(t *testing.T) {
	t.Run("POST /api/v1/skipped marks a transaction", func(t *testing.T) {
		server, store := newTestServer(t)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/skipped",
			`{"transaction_id": "t1", "reason": "keep my split"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, store.IsSkipped("t1"))
	})

	t.Run("POST /api/v1/skipped rejects missing transaction_id", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/skipped", `{"reason": "no id"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET /api/v1/skipped lists entries", func(t *testing.T) {
		server, store := newTestServer(t)
		require.NoError(t, store.MarkSkipped("t1", "keep"))

		rec := doRequest(t, server, http.MethodGet, "/api/v1/skipped", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Skipped []*storage.SkippedTransaction `json:"skipped"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Skipped, 1)
		assert.Equal(t, "t1", response.Skipped[0].TransactionID)
	})

	t.Run("DELETE /api/v1/skipped/:id removes the entry", func(t *testing.T) {
		server, store := newTestServer(t)
		require.NoError(t, store.MarkSkipped("t1", "keep"))

		rec := doRequest(t, server, http.MethodDelete, "/api/v1/skipped/t1", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, store.IsSkipped("t1"))
	})
}
