package cdsfake

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.SetBasicAuth("1", "secret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	resp := rec.Result()
	var reply map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	}
	return resp, reply
}

func TestServer_QueuedThenCompleted(t *testing.T) {
	s := NewServer(Options{UID: "1", Secret: "secret", QueuedPolls: 1})

	resp, reply := do(t, s, http.MethodPost, "/resources/reanalysis-era5-single-levels", `{"year":"2005"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "queued", reply["state"])
	assert.Equal(t, "req-1", reply["request_id"])

	resp, _ = do(t, s, http.MethodGet, "/download/req-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, reply = do(t, s, http.MethodGet, "/tasks/req-1", "")
	assert.Equal(t, "completed", reply["state"])
	assert.Equal(t, "/download/req-1", reply["location"])

	resp, _ = do(t, s, http.MethodGet, "/download/req-1", "")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "CDF\x01era5 2005", string(body))

	subs := s.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "reanalysis-era5-single-levels", subs[0].Dataset)
	assert.Equal(t, "2005", subs[0].Request.Year)
}

func TestServer_FailYears(t *testing.T) {
	s := NewServer(Options{FailYears: map[string]string{"2003": "no data"}})

	_, reply := do(t, s, http.MethodPost, "/resources/ds", `{"year":"2003"}`)
	assert.Equal(t, "failed", reply["state"])
	errInfo, ok := reply["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "no data", errInfo["reason"])
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	s := NewServer(Options{UID: "1", Secret: "other"})

	resp, reply := do(t, s, http.MethodPost, "/resources/ds", `{"year":"2000"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication failed", reply["message"])
	assert.Empty(t, s.Submissions())
}

func TestServer_DeleteAndUnknownTask(t *testing.T) {
	s := NewServer(Options{})
	do(t, s, http.MethodPost, "/resources/ds", `{"year":"2000"}`)

	resp, _ := do(t, s, http.MethodDelete, "/tasks/req-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"req-1"}, s.Deleted())

	resp, _ = do(t, s, http.MethodGet, "/tasks/req-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BadBody(t *testing.T) {
	s := NewServer(Options{})
	resp, _ := do(t, s, http.MethodPost, "/resources/ds", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
