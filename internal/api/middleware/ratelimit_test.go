package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

func limiterRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rm := NewRateLimiterMiddleware(cfg)
	r := gin.New()
	r.GET("/api/products", rm.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func getProducts(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterAllowsWithinBucket(t *testing.T) {
	r := limiterRouter(&config.Config{
		RateLimitSoftBucketSize: 10,
		RateLimitSoftRefillRate: 5,
		RateLimitHardBucketSize: 30,
		RateLimitHardRefillRate: 10,
	})

	for i := 0; i < 10; i++ {
		w := getProducts(r, "203.0.113.10")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterHardRejects(t *testing.T) {
	// Hard bucket of 2 with a slow refill: the third request is rejected.
	r := limiterRouter(&config.Config{
		RateLimitSoftBucketSize: 100,
		RateLimitSoftRefillRate: 100,
		RateLimitHardBucketSize: 2,
		RateLimitHardRefillRate: 1,
	})

	assert.Equal(t, http.StatusOK, getProducts(r, "203.0.113.11").Code)
	assert.Equal(t, http.StatusOK, getProducts(r, "203.0.113.11").Code)

	w := getProducts(r, "203.0.113.11")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// Other clients have their own buckets.
	assert.Equal(t, http.StatusOK, getProducts(r, "203.0.113.12").Code)
}
