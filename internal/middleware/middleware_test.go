package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/util"
	"go.uber.org/zap"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func echoViewer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"viewer": c.GetString(util.ContextUserID)})
}

func TestAuth(t *testing.T) {
	router := gin.New()
	router.Use(Auth(secret, "reelgraph"))
	router.GET("/me", echoViewer)

	token, err := IssueToken(secret, "reelgraph", "acct-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", token, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), "acct-1")
			}
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := IssueToken(secret, "reelgraph", "acct-1", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, "reelgraph", expired)
	assert.Error(t, err)

	otherIssuer, err := IssueToken(secret, "someone-else", "acct-1", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(secret, "reelgraph", otherIssuer)
	assert.Error(t, err)

	wrongKey, err := IssueToken([]byte("other"), "reelgraph", "acct-1", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(secret, "reelgraph", wrongKey)
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	counter := &fakeCounter{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(util.ContextUserID, c.GetHeader("X-Test-User"))
		c.Next()
	})
	router.Use(RateLimit(counter, "likes", 2, time.Minute, m, zap.NewNop()))
	router.POST("/like", echoViewer)

	hit := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/like", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	// buckets are per viewer
	assert.Equal(t, http.StatusOK, hit("b"))

	assert.Equal(t, 1.0, promtest.ToFloat64(m.RateLimitExceededTotal.WithLabelValues("likes")))
}

func TestRateLimitCounterFailure(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&fakeCounter{err: assert.AnError}, "likes", 2, time.Minute, nil, zap.NewNop()))
	router.POST("/like", echoViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/like", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(nil, "likes", 1, time.Minute, nil, zap.NewNop()))
	router.POST("/like", echoViewer)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/like", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/content/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/content/xyz", nil))

	assert.Equal(t, 1.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/content/:id", "204")))
}
