package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// clientWindow tracks one client's request count within the current window.
type clientWindow struct {
	windowStart time.Time
	count       int
	lastSeen    time.Time
}

// InquiryGuard protects the public inquiry endpoint with two layers keyed by
// client identity over a shared fixed window:
//  1. progressive slow-down: the first delayAfter requests pass untouched,
//     each one above that sleeps for a fixed delay before proceeding;
//  2. hard cap: requests beyond the limit are rejected with 429 and
//     RateLimit-* headers so well-behaved clients can back off.
//
// State is per process; with several API instances each applies its own
// limits independently.
type InquiryGuard struct {
	clients map[string]*clientWindow
	mu      sync.Mutex

	window     time.Duration
	delayAfter int
	delay      time.Duration
	limit      int

	now   func() time.Time
	sleep func(time.Duration)
}

// NewInquiryGuard creates the guard and starts its cleanup goroutine.
func NewInquiryGuard(cfg *config.Config) *InquiryGuard {
	g := &InquiryGuard{
		clients:    make(map[string]*clientWindow),
		window:     cfg.InquiryRateWindow,
		delayAfter: cfg.InquiryDelayAfter,
		delay:      cfg.InquiryDelay,
		limit:      cfg.InquiryRateLimit,
		now:        time.Now,
		sleep:      time.Sleep,
	}
	go g.cleanupClients()
	return g
}

// cleanupClients periodically removes entries whose window has long expired.
func (g *InquiryGuard) cleanupClients() {
	for {
		time.Sleep(10 * time.Minute)
		g.mu.Lock()
		for id, cw := range g.clients {
			if g.now().Sub(cw.lastSeen) > 2*g.window {
				delete(g.clients, id)
			}
		}
		g.mu.Unlock()
	}
}

// touch registers one request for the client and returns the updated count
// plus the time the current window resets.
func (g *InquiryGuard) touch(identity string) (count int, resetAt time.Time) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	cw, exists := g.clients[identity]
	if !exists || now.Sub(cw.windowStart) >= g.window {
		cw = &clientWindow{windowStart: now}
		g.clients[identity] = cw
	}
	cw.count++
	cw.lastSeen = now
	return cw.count, cw.windowStart.Add(g.window)
}

// Limit creates the Gin middleware handler.
func (g *InquiryGuard) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ClientIdentity(c)
		count, resetAt := g.touch(identity)

		remaining := g.limit - count
		if remaining < 0 {
			remaining = 0
		}
		resetSeconds := int(math.Ceil(time.Until(resetAt).Seconds()))
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		c.Header("RateLimit-Limit", fmt.Sprintf("%d", g.limit))
		c.Header("RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("RateLimit-Reset", fmt.Sprintf("%d", resetSeconds))

		if count > g.limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":    false,
				"error": "Too many inquiries created from this IP, please try again later.",
			})
			return
		}

		// Above the free allowance but under the cap: raise the cost of
		// scripted flooding without blocking legitimate retries.
		if count > g.delayAfter {
			g.sleep(g.delay)
		}

		c.Next()
	}
}
