package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/service"
)

type countStub int

func (c countStub) Len() int { return int(c) }

func TestMetricsHandlerKeepalive(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	h := NewMetricsHandler(service.NewMetricsService(), countStub(0), ok, nil, nil)
	w := performJSON(t, h.Keepalive, http.MethodGet, "/api/keepalive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Service is alive and database connection is active", body["message"])
	assert.NotEmpty(t, body["timestamp"])

	h = NewMetricsHandler(service.NewMetricsService(), countStub(0), down, nil, nil)
	w = performJSON(t, h.Keepalive, http.MethodGet, "/api/keepalive", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decodeBody(t, w)["status"])
	assert.NotContains(t, w.Body.String(), "refused")
}

func TestMetricsHandlerHealthAndReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("redis down") }

	h := NewMetricsHandler(service.NewMetricsService(), countStub(3), ok, down, nil)

	w := performJSON(t, h.Health, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics, isMap := decodeBody(t, w)["metrics"].(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, float64(3), metrics["subscribers"])

	w = performJSON(t, h.Ready, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks, isMap := decodeBody(t, w)["checks"].(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "unavailable", checks["cache"])
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordSubmission("committed")
	h := NewMetricsHandler(metrics, countStub(0), nil, nil, nil)

	w := performJSON(t, h.Prometheus, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `festival_result_submissions_total{outcome="committed"} 1`)
}
