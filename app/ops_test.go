package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsRouter_Healthz(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]HealthChecker
		wantCode int
		wantBody string
	}{
		{
			name:     "all healthy",
			checks:   map[string]HealthChecker{"database": func(context.Context) error { return nil }},
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name: "failing check",
			checks: map[string]HealthChecker{
				"queue": func(context.Context) error { return errors.New("pool closed") },
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "queue: pool closed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(NewOpsRouter(prometheus.NewRegistry(), tt.checks))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/healthz")
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}

func TestOpsRouter_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gradebot_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer(NewOpsRouter(registry, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "gradebot_test_total 1")
}
