package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"address_search_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestIPRateLimiterRejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, nil)

	r := gin.New()
	r.Use(limiter.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: apperr.NotFound("session not found"), want: http.StatusNotFound},
		{name: "upstream", err: apperr.Upstream("lookup failed", errors.New("502")), want: http.StatusBadGateway},
		{name: "timeout", err: apperr.Timeout("lookup timed out", errors.New("deadline")), want: http.StatusGatewayTimeout},
		{name: "untyped", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if !HandleError(c, tt.err) {
				t.Fatal("HandleError() = false")
			}
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
