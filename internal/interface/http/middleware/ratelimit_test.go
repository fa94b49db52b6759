package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeLimiter struct {
	allow      bool
	remaining  int
	retryAfter time.Duration
	err        error
	lastKey    string
	lastLimit  int
	lastWindow time.Duration
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error) {
	f.lastKey = key
	f.lastLimit = limit
	f.lastWindow = window
	return f.allow, f.remaining, f.retryAfter, f.err
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/generations", nil)
	return c, w
}

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	limiter := &fakeLimiter{allow: true, remaining: 9}
	mw := NewRateLimitMiddleware(limiter)

	c, w := newTestContext()
	called := false
	c.Handlers = gin.HandlersChain{mw.LimitClass(RouteClassGenerations), func(c *gin.Context) { called = true }}
	c.Next()

	if !called {
		t.Error("expected downstream handler to run when allowed")
	}
	if w.Code != http.StatusOK && w.Code != 0 {
		t.Errorf("expected no error status written, got %d", w.Code)
	}
	if limiter.lastLimit != 10 || limiter.lastWindow != time.Hour {
		t.Errorf("expected generations bounds (10, 1h), got (%d, %s)", limiter.lastLimit, limiter.lastWindow)
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	limiter := &fakeLimiter{allow: false, remaining: 0, retryAfter: 30 * time.Second}
	mw := NewRateLimitMiddleware(limiter)

	c, w := newTestContext()
	called := false
	c.Handlers = gin.HandlersChain{mw.LimitClass(RouteClassGenerations), func(c *gin.Context) { called = true }}
	c.Next()

	if called {
		t.Error("expected downstream handler NOT to run when rate limited")
	}
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be set")
	}
}

func TestRateLimitMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: context.DeadlineExceeded}
	mw := NewRateLimitMiddleware(limiter)

	c, _ := newTestContext()
	called := false
	c.Handlers = gin.HandlersChain{mw.LimitClass(RouteClassGeneral), func(c *gin.Context) { called = true }}
	c.Next()

	if !called {
		t.Error("expected downstream handler to run when the limiter itself errors (fail open)")
	}
}

func TestRateLimitMiddleware_KeysByAuthenticatedUserOverIP(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	mw := NewRateLimitMiddleware(limiter)

	c, _ := newTestContext()
	userID := uuid.New()
	c.Set(UserIDKey, userID)

	c.Handlers = gin.HandlersChain{mw.LimitClass(RouteClassStorage), func(c *gin.Context) {}}
	c.Next()

	if limiter.lastKey == "" {
		t.Fatal("expected limiter to be called with a key")
	}
	if want := "ratelimit:storage:" + userID.String(); limiter.lastKey != want {
		t.Errorf("expected key %q, got %q", want, limiter.lastKey)
	}
}
