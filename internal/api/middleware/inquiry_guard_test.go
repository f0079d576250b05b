package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(now *time.Time, slept *[]time.Duration) *InquiryGuard {
	return &InquiryGuard{
		clients:    make(map[string]*clientWindow),
		window:     10 * time.Minute,
		delayAfter: 3,
		delay:      800 * time.Millisecond,
		limit:      5,
		now:        func() time.Time { return *now },
		sleep:      func(d time.Duration) { *slept = append(*slept, d) },
	}
}

func guardRouter(g *InquiryGuard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/inquiries", g.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func fireGuard(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/inquiries", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInquiryGuardProgressiveDelay(t *testing.T) {
	now := time.Now()
	var slept []time.Duration
	g := newTestGuard(&now, &slept)
	r := guardRouter(g)

	// First three requests pass without delay.
	for i := 0; i < 3; i++ {
		w := fireGuard(r, "203.0.113.1")
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Empty(t, slept)

	// Fourth and fifth each pay the fixed delay but still succeed.
	for i := 0; i < 2; i++ {
		w := fireGuard(r, "203.0.113.1")
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, []time.Duration{800 * time.Millisecond, 800 * time.Millisecond}, slept)
}

func TestInquiryGuardHardCap(t *testing.T) {
	now := time.Now()
	var slept []time.Duration
	g := newTestGuard(&now, &slept)
	r := guardRouter(g)

	for i := 0; i < 5; i++ {
		w := fireGuard(r, "203.0.113.2")
		require.Equal(t, http.StatusCreated, w.Code, "request %d should pass", i+1)
	}

	w := fireGuard(r, "203.0.113.2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many inquiries")

	// Headers are present on rejection too.
	assert.Equal(t, "5", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	reset, err := strconv.Atoi(w.Header().Get("RateLimit-Reset"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reset, 0)
	assert.LessOrEqual(t, reset, 600)
}

func TestInquiryGuardHeadersCountDown(t *testing.T) {
	now := time.Now()
	var slept []time.Duration
	g := newTestGuard(&now, &slept)
	r := guardRouter(g)

	w := fireGuard(r, "203.0.113.3")
	assert.Equal(t, "5", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("RateLimit-Remaining"))

	w = fireGuard(r, "203.0.113.3")
	assert.Equal(t, "3", w.Header().Get("RateLimit-Remaining"))
}

func TestInquiryGuardWindowReset(t *testing.T) {
	now := time.Now()
	var slept []time.Duration
	g := newTestGuard(&now, &slept)
	r := guardRouter(g)

	for i := 0; i < 6; i++ {
		fireGuard(r, "203.0.113.4")
	}
	w := fireGuard(r, "203.0.113.4")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// Once the window elapses the counter starts over.
	now = now.Add(10 * time.Minute)
	w = fireGuard(r, "203.0.113.4")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4", w.Header().Get("RateLimit-Remaining"))
}

func TestInquiryGuardIsolatesClients(t *testing.T) {
	now := time.Now()
	var slept []time.Duration
	g := newTestGuard(&now, &slept)
	r := guardRouter(g)

	for i := 0; i < 6; i++ {
		fireGuard(r, "203.0.113.5")
	}
	w := fireGuard(r, "203.0.113.5")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client is unaffected.
	w = fireGuard(r, "198.51.100.77")
	assert.Equal(t, http.StatusCreated, w.Code)
}
