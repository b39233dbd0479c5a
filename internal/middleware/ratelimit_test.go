package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter(t *testing.T) {
	cases := []struct {
		name   string
		reqs   int
		lim    int
		expect int
	}{
		{name: "within limit", reqs: 2, lim: 3, expect: http.StatusOK},
		{name: "at limit", reqs: 3, lim: 3, expect: http.StatusOK},
		{name: "exceed limit", reqs: 5, lim: 3, expect: http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RateLimiter(tc.lim, time.Minute))
			r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
			var last *httptest.ResponseRecorder
			for i := 0; i < tc.reqs; i++ {
				last = httptest.NewRecorder()
				r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
			}
			if last.Code != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, last.Code)
			}
			if tc.expect == http.StatusTooManyRequests && last.Header().Get("Retry-After") != "60" {
				t.Fatalf("Retry-After=%q", last.Header().Get("Retry-After"))
			}
		})
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	now := time.Date(2025, 9, 22, 10, 0, 0, 0, time.UTC)
	l := newLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow("a") || !l.allow("a") {
		t.Fatalf("first two hits should pass")
	}
	if l.allow("a") {
		t.Fatalf("third hit should be limited")
	}
	if !l.allow("b") {
		t.Fatalf("other clients have their own budget")
	}

	now = now.Add(30 * time.Second)
	if !l.allow("a") {
		t.Fatalf("one token should refill after window/limit")
	}
	if l.allow("a") {
		t.Fatalf("only one token refilled")
	}

	now = now.Add(time.Minute)
	if !l.allow("a") || !l.allow("a") {
		t.Fatalf("budget should be full again after a whole window")
	}
}

func TestLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2025, 9, 22, 10, 0, 0, 0, time.UTC)
	l := newLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < sweepThreshold; i++ {
		l.allow(strconv.Itoa(i))
	}
	now = now.Add(time.Minute)
	l.allow("fresh")
	if len(l.clients) != 1 {
		t.Fatalf("idle clients not swept: %d left", len(l.clients))
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := newLimiter(0, 0)
	if l.limit != DefaultRateLimit || l.window != DefaultRateWindow {
		t.Fatalf("defaults not applied: limit=%d window=%v", l.limit, l.window)
	}
}

func TestRetryAfter(t *testing.T) {
	if got := retryAfter(100 * time.Millisecond); got != "1" {
		t.Fatalf("sub-second window -> %q, want 1", got)
	}
	if got := retryAfter(90 * time.Second); got != "90" {
		t.Fatalf("got %q, want 90", got)
	}
}
