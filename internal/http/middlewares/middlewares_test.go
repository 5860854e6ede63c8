package middlewares

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/gin-gonic/gin"
)

func withActor(a actorctx.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		setActor(c, a)
		c.Next()
	}
}

func TestRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		actor      *actorctx.Actor
		guard      gin.HandlerFunc
		wantStatus int
	}{
		{"anonymous login route", nil, RequireLogin(), http.StatusUnauthorized},
		{"customer login route", &actorctx.Actor{UserID: 2, Role: "customer", Token: "t"}, RequireLogin(), http.StatusOK},
		{"anonymous admin route", nil, RequireAdmin(), http.StatusUnauthorized},
		{"customer admin route", &actorctx.Actor{UserID: 2, Role: "customer", Token: "t"}, RequireAdmin(), http.StatusForbidden},
		{"admin admin route", &actorctx.Actor{UserID: 1, Role: "admin", Token: "t"}, RequireAdmin(), http.StatusOK},
		{"admin without token", &actorctx.Actor{UserID: 1, Role: "admin"}, RequireAdmin(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			if tt.actor != nil {
				r.Use(withActor(*tt.actor))
			}
			r.GET("/x", tt.guard, func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Code == http.StatusUnauthorized && !bytes.Contains(w.Body.Bytes(), []byte(`"redirect":"login.html"`)) {
				t.Fatalf("401 should carry the login redirect, body=%s", w.Body.String())
			}
		})
	}
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "k", 3, time.Minute); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "k", 3, time.Minute); ok {
		t.Fatalf("4th hit should be refused")
	}
	if ok, _ := l.Allow(ctx, "other", 3, time.Minute); !ok {
		t.Fatalf("keys are independent")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := l.Allow(ctx, "k", 3, time.Minute); !ok {
		t.Fatalf("new window should allow again")
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(r *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		r.ServeHTTP(w, req)
		return w
	}

	r := gin.New()
	r.POST("/login", RateLimit(NewMemoryLimiter(), "login", 2, time.Minute, KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r)
	serve(r)
	w := serve(r)

	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"success":false`)) {
		t.Fatalf("third attempt should be refused in the envelope, got %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	open := gin.New()
	open.POST("/login", RateLimit(brokenLimiter{}, "login", 1, time.Minute, KeyByIP), func(c *gin.Context) { c.String(http.StatusOK, "in") })
	if w := serve(open); w.Body.String() != "in" {
		t.Fatalf("limiter errors should fail open, got %s", w.Body.String())
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		name   string
		body   string
		ct     string
		wantOK bool
	}{
		{"json", `{}`, "application/json; charset=utf-8", true},
		{"form", `a=b`, "application/x-www-form-urlencoded", false},
		{"empty body", ``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(tt.body))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if got := w.Body.String() == "ok"; got != tt.wantOK {
				t.Fatalf("passed = %v, want %v (body=%s)", got, tt.wantOK, w.Body.String())
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Content-Type-Options", "Strict-Transport-Security"} {
		if w.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example/"}))
	r.GET("/cars", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/cars", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/cars", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin got allow origin %q", got)
	}
}
