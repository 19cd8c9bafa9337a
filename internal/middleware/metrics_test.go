package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/records-panel/internal/service"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.POST("/panel/edit/:entity/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panel/events", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Status(http.StatusOK)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/panel/edit/students/S1", nil),
		httptest.NewRequest(http.MethodGet, "/panel/events", nil),
		httptest.NewRequest(http.MethodGet, "/no/such/page", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `path="/panel/edit/:entity/:id"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "S1")
	assert.NotContains(t, body, `path="/panel/events"`)
}
