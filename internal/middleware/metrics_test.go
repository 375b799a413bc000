package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	path   string
	status int
}

type observerStub struct {
	seen []observation
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.seen = append(o.seen, observation{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &observerStub{}
	r := gin.New()
	r.Use(Metrics(stub))
	r.GET("/api/results", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/results?level=high_school", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	require.Len(t, stub.seen, 2)
	assert.Equal(t, observation{method: http.MethodGet, path: "/api/results", status: http.StatusOK}, stub.seen[0])
	assert.Equal(t, "unmatched", stub.seen[1].path)
	assert.Equal(t, http.StatusNotFound, stub.seen[1].status)
}
