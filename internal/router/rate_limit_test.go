package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":" Collector@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "collector@example.com|1.2.3.4" {
		t.Fatalf("key want collector@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Collector@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/store/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/store/products", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestEvaluateRateLimit(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 3, BlockSeconds: 300}
	cases := []struct {
		name  string
		rule  RateLimitRule
		count int64
		ttl   int64
		want  rateLimitDecision
	}{
		{name: "under limit", rule: rule, count: 3, ttl: 40, want: rateLimitDecision{}},
		{name: "first overflow extends block", rule: rule, count: 4, ttl: 40, want: rateLimitDecision{Blocked: true, ExtendBlock: true, WaitSeconds: 300}},
		{name: "later overflow keeps ttl", rule: rule, count: 5, ttl: 280, want: rateLimitDecision{Blocked: true, WaitSeconds: 280}},
		{name: "no block window", rule: RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, count: 2, ttl: 0, want: rateLimitDecision{Blocked: true, WaitSeconds: 60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluateRateLimit(tc.rule, tc.count, tc.ttl)
			if got != tc.want {
				t.Fatalf("want %+v got %+v", tc.want, got)
			}
		})
	}
}

func TestRateLimitKeyPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	c.Request.RemoteAddr = "9.8.7.6:1000"

	if got := rateLimitKey(c, RateLimitRule{Prefix: "rl:login"}, nil); got != "rl:login:9.8.7.6" {
		t.Fatalf("key want rl:login:9.8.7.6 got %s", got)
	}
	blank := func(*gin.Context) string { return "  " }
	if got := rateLimitKey(c, RateLimitRule{}, blank); got != "9.8.7.6" {
		t.Fatalf("blank key should fall back to ip, got %s", got)
	}
}

func TestParseRateLimitResult(t *testing.T) {
	count, ttl, ok := parseRateLimitResult([]interface{}{int64(2), int64(57)})
	if !ok || count != 2 || ttl != 57 {
		t.Fatalf("unexpected parse %d %d %v", count, ttl, ok)
	}
	if _, _, ok := parseRateLimitResult("bad"); ok {
		t.Fatalf("non-slice result should fail")
	}
	if _, _, ok := parseRateLimitResult([]interface{}{"x", int64(1)}); ok {
		t.Fatalf("non-numeric count should fail")
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
