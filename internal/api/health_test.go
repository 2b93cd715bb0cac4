package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		ping    func(ctx context.Context) error
		path    string
		want    int
		wantKey string
	}{
		{name: "healthz ok", path: "/healthz", want: 200},
		{name: "readyz without archive", path: "/readyz", want: 200, wantKey: "tapes"},
		{name: "readyz ok", ping: func(context.Context) error { return nil }, path: "/readyz", want: 200},
		{name: "readyz degraded", ping: func(context.Context) error { return assertErr{} }, path: "/readyz", want: 503, wantKey: "archive"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler(tc.ping, func() int { return 3 }).Register(r)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, w.Code)
			}
			if tc.wantKey == "" {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if _, ok := body[tc.wantKey]; !ok {
				t.Fatalf("body %v missing %q", body, tc.wantKey)
			}
		})
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "err" }
