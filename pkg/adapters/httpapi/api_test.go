package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mischief/internal/platform"
	"github.com/aretw0/mischief/pkg/adapters/httpapi"
)

const (
	harryKey      = "harry_secret_key_123"
	hermioneKey   = "hermione_secret_key_456"
	ronKey        = "ron_secret_key_789"
	dumbledoreKey = "dumbledore_admin_key_999"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "data")
	c, err := platform.Open(context.Background(), dir,
		platform.WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.New(c.Service, nil))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, key string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(httpapi.APIKeyHeader, key)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthAndPrincipals(t *testing.T) {
	srv := setupServer(t)

	status, body := call(t, srv, "GET", "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "operational", decodeJSON[map[string]string](t, body)["status"])

	status, _ = call(t, srv, "GET", "/wizards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, srv, "GET", "/wizards", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, srv, "GET", "/wizards", harryKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), "secret_key")
	wizards := decodeJSON[[]map[string]string](t, body)
	assert.Len(t, wizards, 5)
	assert.Equal(t, "Harry", wizards[0]["name"])
}

func TestNoteLifecycle(t *testing.T) {
	srv := setupServer(t)

	status, body := call(t, srv, "POST", "/notes", harryKey, map[string]string{"title": "Map", "content": "Marauder's Map"})
	require.Equal(t, http.StatusOK, status, string(body))
	note := decodeJSON[map[string]any](t, body)
	id := note["note_id"].(string)
	assert.Equal(t, "Harry", note["owner"])
	assert.Equal(t, []any{}, note["shared_with"])
	assert.Equal(t, "2026-01-02T03:04:05Z", note["created_at"])

	status, _ = call(t, srv, "GET", "/notes/"+id, hermioneKey, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, srv, "POST", "/notes/share", ronKey, map[string]string{"note_id": id, "wizard_name": "Hermione"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, "POST", "/notes/share", harryKey, map[string]string{"note_id": id, "wizard_name": "Voldemort"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, srv, "POST", "/notes/share", harryKey, map[string]string{"note_id": id, "wizard_name": "Hermione"})
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, srv, "GET", "/notes", hermioneKey, nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeJSON[[]map[string]any](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, []any{"Hermione"}, list[0]["shared_with"])

	status, body = call(t, srv, "GET", "/notes/"+id, hermioneKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Marauder's Map", decodeJSON[map[string]any](t, body)["content"])

	status, _ = call(t, srv, "DELETE", "/notes/"+id, hermioneKey, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, "DELETE", "/notes/"+id, harryKey, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, "DELETE", "/notes/"+id, harryKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAccessRequests(t *testing.T) {
	srv := setupServer(t)

	status, _ := call(t, srv, "POST", "/notes", harryKey, map[string]string{"title": "Map", "content": "x"})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, "POST", "/access-requests", ronKey, map[string]string{"wizard_name": "Ron"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, srv, "POST", "/access-requests", ronKey, map[string]string{"wizard_name": "Voldemort"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := call(t, srv, "POST", "/access-requests", ronKey, map[string]string{"wizard_name": "Harry"})
	require.Equal(t, http.StatusOK, status)
	requestID := decodeJSON[map[string]string](t, body)["request_id"]
	require.NotEmpty(t, requestID)

	status, body = call(t, srv, "GET", "/access-requests", harryKey, nil)
	require.Equal(t, http.StatusOK, status)
	incoming := decodeJSON[[]map[string]string](t, body)
	require.Len(t, incoming, 1)
	assert.Equal(t, "Ron", incoming[0]["from_wizard"])
	assert.Equal(t, "Harry", incoming[0]["to_wizard"])
	assert.Equal(t, "pending", incoming[0]["status"])

	approve := map[string]string{"request_id": requestID}
	status, _ = call(t, srv, "POST", "/access-requests/approve", hermioneKey, approve)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, "POST", "/access-requests/approve", harryKey, approve)
	require.Equal(t, http.StatusOK, status)
	status, body = call(t, srv, "POST", "/access-requests/approve", harryKey, approve)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_state", decodeJSON[map[string]string](t, body)["code"])

	status, body = call(t, srv, "GET", "/notes", ronKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeJSON[[]map[string]any](t, body), 1)
}

func TestAdmin(t *testing.T) {
	srv := setupServer(t)

	status, body := call(t, srv, "POST", "/notes", harryKey, map[string]string{"title": "Map", "content": "Marauder's Map"})
	require.Equal(t, http.StatusOK, status)
	id := decodeJSON[map[string]any](t, body)["note_id"].(string)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/admin/notes"},
		{"GET", "/admin/notes/" + id + "/download"},
		{"DELETE", "/admin/notes/unknown"},
		{"DELETE", "/admin/shares"},
	} {
		status, _ := call(t, srv, tc.method, tc.path, harryKey, nil)
		assert.Equal(t, http.StatusForbidden, status, tc.path)
	}
	status, _ = call(t, srv, "POST", "/admin/wizards", ronKey, map[string]string{"name": "Neville", "api_key": "toad"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, srv, "GET", "/admin/notes", dumbledoreKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeJSON[[]map[string]any](t, body), 1)

	status, body = call(t, srv, "GET", "/admin/notes/"+id+"/download", dumbledoreKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Mischief Managed")
	assert.NotContains(t, string(body), "Marauder")

	status, _ = call(t, srv, "POST", "/admin/wizards", dumbledoreKey, map[string]string{"name": "Neville", "api_key": "toad"})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, "POST", "/admin/wizards", dumbledoreKey, map[string]string{"name": "Neville", "api_key": "frog"})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = call(t, srv, "GET", "/notes", "toad", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, "POST", "/admin/wizards", dumbledoreKey, map[string]string{"name": "Ginny", "api_key": "toad"})
	assert.Equal(t, http.StatusConflict, status, "credentials identify one principal")
	status, body = call(t, srv, "POST", "/admin/wizards", dumbledoreKey, map[string]string{"name": "  Luna ", "api_key": "radish"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Wizard Luna created")

	status, _ = call(t, srv, "DELETE", "/admin/shares", dumbledoreKey, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, "DELETE", "/admin/notes/"+id, dumbledoreKey, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, "DELETE", "/admin/notes/"+id, dumbledoreKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBadPayload(t *testing.T) {
	srv := setupServer(t)

	req, err := http.NewRequest("POST", srv.URL+"/notes", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set(httpapi.APIKeyHeader, harryKey)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadNote(t *testing.T) {
	srv := setupServer(t)

	status, body := call(t, srv, "POST", "/notes", harryKey, map[string]string{"title": "Map", "content": "Mischief <managed> & done"})
	require.Equal(t, http.StatusOK, status)
	id := decodeJSON[map[string]any](t, body)["note_id"].(string)

	status, _ = call(t, srv, "GET", "/notes/"+id+"/download", ronKey, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, srv, "GET", "/notes/"+id+"/download", harryKey, nil)
	require.Equal(t, http.StatusOK, status)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "note_download", body)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, httpapi.StatusCode("unauthenticated"))
	assert.Equal(t, http.StatusForbidden, httpapi.StatusCode("permission_denied"))
	assert.Equal(t, http.StatusNotFound, httpapi.StatusCode("not_found"))
	assert.Equal(t, http.StatusConflict, httpapi.StatusCode("already_exists"))
	assert.Equal(t, http.StatusConflict, httpapi.StatusCode("invalid_state"))
	assert.Equal(t, http.StatusBadRequest, httpapi.StatusCode("invalid_argument"))
	assert.Equal(t, http.StatusInternalServerError, httpapi.StatusCode("internal"))
}
