package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/vocabulary/vocabtest"
)

func newTestServer(t *testing.T, root string) *httptest.Server {
	t.Helper()
	srv := New(root, "127.0.0.1:0", nil)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func postJSON(t *testing.T, url string, payload any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	status, body := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "specforge-api", body["service"])

	resp, err := http.Post(ts.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCompileEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	ts := newTestServer(t, root)

	status, body := postJSON(t, ts.URL+"/compile", map[string]any{
		"input_path": filepath.Join("specs", "registration.txt"),
	})
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, true, body["ok"])

	outputs, ok := body["outputs"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"dal", "canonical_gwt", "ir", "diff"} {
		assert.Contains(t, outputs, key)
	}

	_, err := os.Stat(filepath.Join(root, "specs", "registration.dal"))
	assert.NoError(t, err)
}

func TestCompileEndpointMissingVocabulary(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	status, body := postJSON(t, ts.URL+"/compile", map[string]any{
		"input_path": "specs/registration.txt",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "missing vocabulary file")
}

func TestCompileEndpointRejectsBadJSON(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	resp, err := http.Post(ts.URL+"/compile", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	leakySpec := `;===============================================================
; Leaky registration.
;===============================================================
GIVEN the PaymentManager stores data in PostgreSQL.

WHEN a user registers with email "bob@example.com" and password "secret123".

THEN there are 1 registered users.
`
	leaky := filepath.Join(root, "specs", "leaky.txt")
	require.NoError(t, os.WriteFile(leaky, []byte(leakySpec), 0o644))
	ts := newTestServer(t, root)

	status, body := postJSON(t, ts.URL+"/check", map[string]any{
		"input_path": filepath.Join("specs", "leaky.txt"),
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ok"])
	// One lint hit (PostgreSQL) plus two guardian hits on PaymentManager.
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(2), body["guardian_count"])

	// A clean spec passes both checks.
	status, body = postJSON(t, ts.URL+"/check", map[string]any{
		"input_path": filepath.Join("specs", "registration.txt"),
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, float64(0), body["guardian_count"])
}

func TestStatusEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	ts := newTestServer(t, root)

	status, body := getJSON(t, ts.URL+"/status")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["initialized"])
	assert.Equal(t, float64(1), body["gwt_specs"])
	assert.Equal(t, float64(0), body["dal_specs"])
	assert.Equal(t, float64(0), body["gaps_total"])
}

func TestGraphEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	ts := newTestServer(t, root)

	resp, err := http.Get(ts.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Contains(t, payload, "states")
	assert.Contains(t, payload, "transitions")
	assert.Contains(t, payload, "cycles")
}

func TestEquivalencesEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	duplicated := `;===============================================================
; Dashboard after login.
;===============================================================
GIVEN the user is logged in.

WHEN the user opens the dashboard.

THEN the dashboard is shown.

;===============================================================
; Settings after login.
;===============================================================
GIVEN a user is logged in.

WHEN the user opens the settings.

THEN the settings page is shown.
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "specs", "login.txt"), []byte(duplicated), 0o644))
	ts := newTestServer(t, root)

	status, body := getJSON(t, ts.URL+"/equivalences")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, 0.7, body["threshold"])

	pairs, ok := body["equivalences"].([]any)
	require.True(t, ok)
	assert.Equal(t, float64(len(pairs)), body["count"])

	found := false
	for _, raw := range pairs {
		pair := raw.(map[string]any)
		if pair["label_a"] == "a user is logged in" && pair["label_b"] == "the user is logged in" {
			assert.Equal(t, float64(1), pair["score"])
			found = true
		}
	}
	assert.True(t, found, "expected the article-only variants to pair up")

	// The threshold must be a ratio in (0, 1].
	status, _ = getJSON(t, ts.URL+"/equivalences?threshold=2")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGapsEndpoint(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	ts := newTestServer(t, root)

	status, body := getJSON(t, ts.URL+"/gaps")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, body, "count")
	assert.Contains(t, body, "gaps")
}

func TestInterrogateEndpointRejectsBadAnswer(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	ts := newTestServer(t, root)

	status, body := postJSON(t, ts.URL+"/interrogate", map[string]any{
		"idea":    "Password reset flow",
		"answers": []string{"no-separator"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "expected key=value")
}
