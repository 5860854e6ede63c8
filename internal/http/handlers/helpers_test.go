package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Redirect string          `json:"redirect"`
}

var (
	customer = actorctx.Actor{UserID: 7, Role: "customer", Name: "Ana", Email: "ana@example.com", Token: "tok-7"}
	admin    = actorctx.Actor{UserID: 1, Role: "admin", Name: "Root", Email: "root@example.com", Token: "tok-1"}
)

// newRouter returns a test engine that pretends the session guard already
// resolved actor. A zero actor means an anonymous caller.
func newRouter(actor actorctx.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor.IsAuthenticated() {
			c.Set(middlewares.CtxActor, actor)
		}
		c.Next()
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v body=%s", err, w.Body.String())
	}
	return w, env
}
