package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/http/middlewares"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	rl := middlewares.NewRateLimiter(nil, limit, window)

	r := gin.New()
	r.GET("/ping", rl.Middleware(middlewares.KeyByIP), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	r := newLimitedRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d got status %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	r := newLimitedRouter(2, time.Minute)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("warmup request %d got status %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}
}

func TestMemoryCounter_WindowResets(t *testing.T) {
	c := middlewares.NewMemoryCounter()

	count, _, err := c.IncrWindow(nil, "k", 10*time.Millisecond)
	if err != nil || count != 1 {
		t.Fatalf("first hit: count=%d err=%v", count, err)
	}

	count, _, err = c.IncrWindow(nil, "k", 10*time.Millisecond)
	if err != nil || count != 2 {
		t.Fatalf("second hit: count=%d err=%v", count, err)
	}

	time.Sleep(15 * time.Millisecond)

	count, _, err = c.IncrWindow(nil, "k", 10*time.Millisecond)
	if err != nil || count != 1 {
		t.Fatalf("after window: count=%d err=%v", count, err)
	}
}
