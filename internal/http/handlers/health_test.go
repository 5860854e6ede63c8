package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		checks       map[string]handlers.Pinger
		shuttingDown bool
		want         int
	}{
		{"all healthy", map[string]handlers.Pinger{"postgres": func(context.Context) error { return nil }}, false, http.StatusOK},
		{"db down", map[string]handlers.Pinger{"postgres": func(context.Context) error { return errors.New("refused") }}, false, http.StatusServiceUnavailable},
		{"draining", nil, true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks, func() bool { return tt.shuttingDown })

			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
