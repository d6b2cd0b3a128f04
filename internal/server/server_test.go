package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pantry/internal/auth"
	"github.com/sakif/pantry/internal/config"
	"github.com/sakif/pantry/internal/persistence"
)

const testSecret = "test-secret-for-pantry-server"

var testNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Storage = persistence.Config{Driver: persistence.DriverMemory}
	cfg.FetchLatency = 0
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), cfg, logger, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// do sends a request through the router and decodes the JSON body into a map.
func do(t *testing.T, h http.Handler, method, path string, body any, header http.Header) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func itemIDs(t *testing.T, feed map[string]any) []string {
	t.Helper()
	items, ok := feed["items"].([]any)
	require.True(t, ok, "items missing: %v", feed)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.(map[string]any)["id"].(string)
	}
	return ids
}

func TestNew_LoadsFirstPage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	code, feed := do(t, srv.Handler(), http.MethodGet, "/api/food-items", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, itemIDs(t, feed))
	assert.Equal(t, true, feed["hasMore"])
	assert.Equal(t, 1.0, feed["currentPage"])
	assert.Equal(t, 8.0, feed["totalDisplayed"])

	first := feed["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "normal", first["status"])
	assert.NotEmpty(t, first["expirationText"])
}

func TestNextPageAndRefetch(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	code, feed := do(t, h, http.MethodPost, "/api/food-items/next-page", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, itemIDs(t, feed), 16)
	assert.Equal(t, 2.0, feed["currentPage"])

	code, feed = do(t, h, http.MethodPost, "/api/food-items/refetch", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, itemIDs(t, feed), 8)
	assert.Equal(t, 1.0, feed["currentPage"])
}

func TestCreateGetUpdateDelete(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	code, body := do(t, h, http.MethodPost, "/api/food-items", map[string]any{
		"name":           "Gạo ST25",
		"quantity":       5,
		"unit":           "kg",
		"category":       "Đồ khô",
		"expirationDate": "2026-09-01",
	}, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Đã thêm thực phẩm thành công!", body["message"])
	item := body["item"].(map[string]any)
	id := item["id"].(string)
	assert.Equal(t, "Gạo ST25", item["name"])

	code, got := do(t, h, http.MethodGet, "/api/food-items/"+id, nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Gạo ST25", got["name"])

	_, feed := do(t, h, http.MethodGet, "/api/food-items", nil, nil)
	assert.Equal(t, id, itemIDs(t, feed)[0], "new items go first")

	code, body = do(t, h, http.MethodPatch, "/api/food-items/"+id, map[string]any{
		"quantity":       2,
		"expirationDate": nil,
	}, nil)
	require.Equal(t, http.StatusOK, code)
	updated := body["item"].(map[string]any)
	assert.Equal(t, 2.0, updated["quantity"])
	assert.Nil(t, updated["expirationDate"])
	assert.Equal(t, "normal", updated["status"])

	code, body = do(t, h, http.MethodDelete, "/api/food-items/"+id+"?confirm=false", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", body["outcome"])
	code, _ = do(t, h, http.MethodGet, "/api/food-items/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, code, "cancelled delete keeps the item")

	code, body = do(t, h, http.MethodDelete, "/api/food-items/"+id, nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "deleted", body["outcome"])
	assert.Equal(t, "Đã xóa thực phẩm thành công!", body["message"])

	code, body = do(t, h, http.MethodGet, "/api/food-items/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "Không tìm thấy thực phẩm.", body["message"])
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantCode  int
		wantError string
		wantField string
	}{
		{"missing name", http.MethodPost, "/api/food-items", map[string]any{"quantity": 1, "unit": "kg", "category": "Khác"}, http.StatusBadRequest, "validation_error", "name"},
		{"zero quantity", http.MethodPost, "/api/food-items", map[string]any{"name": "x", "quantity": 0, "unit": "kg", "category": "Khác"}, http.StatusBadRequest, "validation_error", "quantity"},
		{"past date", http.MethodPost, "/api/food-items", map[string]any{"name": "x", "quantity": 1, "unit": "kg", "category": "Khác", "expirationDate": "2026-03-09"}, http.StatusBadRequest, "validation_error", "expirationDate"},
		{"bad json", http.MethodPost, "/api/food-items", "not an object", http.StatusBadRequest, "validation_error", "body"},
		{"update missing", http.MethodPatch, "/api/food-items/nope", map[string]any{"quantity": 1}, http.StatusNotFound, "not_found", ""},
		{"delete missing", http.MethodDelete, "/api/food-items/nope", nil, http.StatusNotFound, "not_found", ""},
		{"bad confirm", http.MethodDelete, "/api/food-items/1?confirm=perhaps", nil, http.StatusBadRequest, "validation_error", "confirm"},
		{"bad days", http.MethodGet, "/api/food-items/expiring?days=soon", nil, http.StatusBadRequest, "validation_error", "days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, h, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, body["field"])
			}
		})
	}
}

func TestFilters(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	code, feed := do(t, h, http.MethodPut, "/api/filters", map[string]any{"category": "Rau củ"}, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"1", "2", "9", "15", "20", "27"}, itemIDs(t, feed))
	assert.Equal(t, "Rau củ", feed["categoryFilter"])
	assert.Equal(t, false, feed["hasMore"])

	code, feed = do(t, h, http.MethodDelete, "/api/filters", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, itemIDs(t, feed), 8)
	assert.Nil(t, feed["categoryFilter"])
}

func TestExpiring(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()
	_, _ = do(t, h, http.MethodPost, "/api/food-items/next-page", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/food-items/expiring?days=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	// ids 9..16: six expiring soon and two expired, whatever days says.
	assert.Len(t, items, 8)
}

func TestMetaHealthMetrics(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	code, meta := do(t, h, http.MethodGet, "/api/meta", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, meta["pageSize"])
	assert.Equal(t, 7.0, meta["expirationThresholdDays"])
	assert.NotEmpty(t, meta["categories"])
	assert.NotEmpty(t, meta["units"])

	code, health := do(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", health["status"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pantry_items_displayed 8")
}

func TestAuthGuardsMutations(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = testSecret
	h := newTestServer(t, cfg).Handler()

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	token, err := tokens.Generate("operator")
	require.NoError(t, err)

	code, _ := do(t, h, http.MethodGet, "/api/food-items", nil, nil)
	assert.Equal(t, http.StatusOK, code, "reads stay public")

	input := map[string]any{"name": "Sữa", "quantity": 1, "unit": "hộp", "category": "Sữa & Trứng"}

	code, body := do(t, h, http.MethodPost, "/api/food-items", input, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, _ = do(t, h, http.MethodPut, "/api/filters", map[string]any{}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, h, http.MethodPost, "/api/food-items", input, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusCreated, code)
}

func TestNew_ShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestRestartRestoresInventory(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = persistence.Config{Driver: persistence.DriverSQLite, SQLitePath: t.TempDir() + "/pantry.db"}

	first := newTestServer(t, cfg)
	code, body := do(t, first.Handler(), http.MethodPost, "/api/food-items", map[string]any{
		"name": "Nước mắm", "quantity": 1, "unit": "chai", "category": "Gia vị",
	}, nil)
	require.Equal(t, http.StatusCreated, code)
	id := body["item"].(map[string]any)["id"].(string)
	require.NoError(t, first.Close())

	// A saved record exists, so the second server must not refetch.
	second := newTestServer(t, cfg)
	_, feed := do(t, second.Handler(), http.MethodGet, "/api/food-items", nil, nil)
	ids := itemIDs(t, feed)
	require.Len(t, ids, 9)
	assert.Equal(t, id, ids[0])
	assert.Equal(t, false, feed["isLoading"])

	code, _ = do(t, second.Handler(), http.MethodPut, "/api/filters", map[string]any{"search": "thịt"}, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, second.Close())

	third := newTestServer(t, cfg)
	_, feed = do(t, third.Handler(), http.MethodGet, "/api/food-items", nil, nil)
	assert.Equal(t, "thịt", feed["searchQuery"])
	assert.Equal(t, []string{"4", "11", "17"}, itemIDs(t, feed))
}
