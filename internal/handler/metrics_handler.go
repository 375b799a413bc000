package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/models"
)

type metricsSource interface {
	Handler() http.Handler
	Snapshot() models.SystemMetrics
}

type subscriberCounter interface {
	Len() int
}

// Pinger checks a backing dependency.
type Pinger func(ctx context.Context) error

// MetricsHandler exposes observability and liveness endpoints.
type MetricsHandler struct {
	metrics     metricsSource
	subscribers subscriberCounter
	database    Pinger
	cache       Pinger
	logger      *zap.Logger
	now         func() time.Time
}

// NewMetricsHandler constructs a metrics handler. cache may be nil.
func NewMetricsHandler(metrics metricsSource, subscribers subscriberCounter, database, cache Pinger, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{
		metrics:     metrics,
		subscribers: subscribers,
		database:    database,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports process liveness with a runtime summary.
func (h *MetricsHandler) Health(c *gin.Context) {
	var snapshot models.SystemMetrics
	if h.metrics != nil {
		snapshot = h.metrics.Snapshot()
	}
	if h.subscribers != nil {
		snapshot.Subscribers = h.subscribers.Len()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": snapshot})
}

// Ready reports whether the store and cache are reachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	ready := true
	for name, ping := range map[string]Pinger{"database": h.database, "cache": h.cache} {
		if ping == nil {
			continue
		}
		if err := ping(c.Request.Context()); err != nil {
			h.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// Keepalive godoc
// @Summary Database keepalive ping
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /keepalive [get]
func (h *MetricsHandler) Keepalive(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	timestamp := h.now().UTC().Format(time.RFC3339Nano)
	if h.database != nil {
		if err := h.database(c.Request.Context()); err != nil {
			h.logger.Error("keepalive ping", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":    "error",
				"timestamp": timestamp,
				"message":   "Database connection failed",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": timestamp,
		"message":   "Service is alive and database connection is active",
	})
}
