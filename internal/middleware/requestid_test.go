package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	cases := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generated when absent"},
		{name: "valid incoming id is reused", incoming: "123e4567-e89b-12d3-a456-426614174000", reuse: true},
		{name: "garbage incoming id is replaced", incoming: "not-a-uuid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RequestID())
			var seen string
			r.GET("/", func(c *gin.Context) {
				seen = GetRequestID(c)
				c.String(200, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("header %q is not a uuid", got)
			}
			if seen != got {
				t.Fatalf("context id %q != header id %q", seen, got)
			}
			if tc.reuse && got != tc.incoming {
				t.Fatalf("expected incoming id to be reused, got %q", got)
			}
			if !tc.reuse && got == tc.incoming {
				t.Fatalf("expected a fresh id")
			}
		})
	}
}
