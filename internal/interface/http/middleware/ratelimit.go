package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/interface/http/httpresp"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window limiter keyed by an arbitrary string.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error)
}

// RouteClass names one of the fixed rate-limit tiers from the external
// interface table.
type RouteClass string

const (
	RouteClassGenerations RouteClass = "generations"
	RouteClassStorage     RouteClass = "storage"
	RouteClassWorkers     RouteClass = "workers"
	RouteClassGeneral     RouteClass = "general"
)

// RouteClassLimits are the recommended per-class defaults.
var RouteClassLimits = map[RouteClass]struct {
	Limit  int
	Window time.Duration
}{
	RouteClassGenerations: {Limit: 10, Window: time.Hour},
	RouteClassStorage:     {Limit: 100, Window: time.Hour},
	RouteClassWorkers:     {Limit: 10, Window: time.Minute},
	RouteClassGeneral:     {Limit: 1000, Window: 15 * time.Minute},
}

// RateLimitMiddleware applies a sliding-window limit keyed by
// (principal-or-ip, route-class).
type RateLimitMiddleware struct {
	limiter RateLimiter
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware.
func NewRateLimitMiddleware(limiter RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// LimitClass applies the configured limit for class, keyed by the
// authenticated caller's id when present, otherwise by client IP.
func (m *RateLimitMiddleware) LimitClass(class RouteClass) gin.HandlerFunc {
	bounds := RouteClassLimits[class]

	return func(c *gin.Context) {
		principal := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			principal = userID.String()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", class, principal)

		allowed, remaining, retryAfter, err := m.limiter.Allow(c.Request.Context(), key, bounds.Limit, bounds.Window)
		if err != nil {
			// Fail open: a limiter outage should not block traffic.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", bounds.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			httpresp.Error(c, apierr.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
