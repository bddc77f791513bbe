package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	name string
	err  error
}

func (s stubPinger) Name() string                 { return s.name }
func (s stubPinger) Ping(_ context.Context) error { return s.err }

type stubWorkers []string

func (s stubWorkers) Running() []string { return append([]string(nil), s...) }

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_Health(t *testing.T) {
	s := NewServer("1.2.0", nil)

	rec, body := get(t, s.Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.0", body["version"])
}

func TestServer_Ready(t *testing.T) {
	workers := stubWorkers{"search-providers", "detect-quality-alerts"}

	t.Run("all reachable", func(t *testing.T) {
		s := NewServer("dev", workers, stubPinger{name: "postgres"}, stubPinger{name: "redis"})

		rec, body := get(t, s.Router(), "/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, []interface{}{"detect-quality-alerts", "search-providers"}, body["workers"])
	})

	t.Run("redis down", func(t *testing.T) {
		s := NewServer("dev", workers,
			stubPinger{name: "postgres"},
			stubPinger{name: "redis", err: errors.New("dial tcp: connection refused")},
		)

		rec, body := get(t, s.Router(), "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not_ready", body["status"])
		failures := body["failures"].(map[string]interface{})
		assert.Contains(t, failures, "redis")
		assert.NotContains(t, failures, "postgres")
	})
}

func TestServer_Metrics(t *testing.T) {
	s := NewServer("dev", nil)

	rec, _ := get(t, s.Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
