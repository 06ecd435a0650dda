package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relicvault/storefront/internal/authz"
	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestClientSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ClientSessionMiddleware(config.SessionConfig{CookieName: "sf_session", CookieMaxAgeHours: 1}))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sid": c.GetString(constants.ContextClientSession)})
	})

	const known = "0b7c6a43-5f3e-4d8e-9a51-3f0f6c2c1d11"
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "header", header: known, want: known},
		{name: "cookie", cookie: known, want: known},
		{name: "invalid header falls back to cookie", header: "not-a-uuid", cookie: known, want: known},
		{name: "issued", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set(constants.HeaderClientSession, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sf_session", Value: tc.cookie})
			}
			r.ServeHTTP(w, req)

			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response failed: %v", err)
			}
			got := resp["sid"]
			if tc.want != "" && got != tc.want {
				t.Fatalf("session want %s got %s", tc.want, got)
			}
			if got == "" || normalizeSessionID(got) != got {
				t.Fatalf("session id should be a uuid, got %q", got)
			}
			if w.Header().Get(constants.HeaderClientSession) != got {
				t.Fatalf("response header should echo session id")
			}
			if !strings.Contains(w.Header().Get("Set-Cookie"), "sf_session="+got) {
				t.Fatalf("session cookie missing: %s", w.Header().Get("Set-Cookie"))
			}
		})
	}
}

type tokenParserStub struct {
	claims map[string]*service.SessionClaims
	err    error
}

func (s tokenParserStub) ParseSessionToken(_ context.Context, token string) (*service.SessionClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, service.ErrInvalidToken
}

func TestUserAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parser := tokenParserStub{claims: map[string]*service.SessionClaims{
		"good": {UserID: "u1", Email: "a@b.c", Role: constants.RoleCustomer},
	}}

	newRouter := func(p SessionTokenParser, required bool) *gin.Engine {
		r := gin.New()
		r.Use(UserAuthMiddleware(p, required))
		r.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status_code": 0,
				"data": gin.H{
					"user_id": c.GetString(constants.ContextUserID),
					"token":   c.GetString(constants.ContextSessionToken),
				},
			})
		})
		return r
	}

	cases := []struct {
		name     string
		parser   SessionTokenParser
		required bool
		header   string
		code     int
		userID   string
	}{
		{name: "valid token", parser: parser, required: true, header: "Bearer good", code: 0, userID: "u1"},
		{name: "missing required", parser: parser, required: true, code: 401},
		{name: "malformed required", parser: parser, required: true, header: "Token good", code: 401},
		{name: "invalid required", parser: parser, required: true, header: "Bearer bad", code: 401},
		{name: "revoked required", parser: tokenParserStub{err: service.ErrTokenRevoked}, required: true, header: "Bearer good", code: 401},
		{name: "missing optional", parser: parser, code: 0},
		{name: "invalid optional", parser: parser, header: "Bearer bad", code: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			newRouter(tc.parser, tc.required).ServeHTTP(w, req)
			resp := decodeEnvelope(t, w)
			if resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, resp.StatusCode)
			}
			if tc.code == 401 && resp.Data["redirect"] != constants.LoginRoute {
				t.Fatalf("unauthorized response should redirect to login, got %v", resp.Data["redirect"])
			}
			if tc.code == 0 && resp.Data["user_id"] != tc.userID {
				t.Fatalf("user_id want %q got %v", tc.userID, resp.Data["user_id"])
			}
		})
	}
}

func TestAdminRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(constants.ContextUserRole, role)
			}
			c.Next()
		})
		r.Use(AdminRBACMiddleware(authzService))
		handler := func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status_code": 0})
		}
		r.GET("/api/v1/admin/:resource", handler)
		r.DELETE("/api/v1/admin/:resource/:id", handler)
		return r
	}

	cases := []struct {
		name   string
		role   string
		method string
		path   string
		code   int
	}{
		{name: "admin delete", role: constants.RoleAdmin, method: http.MethodDelete, path: "/api/v1/admin/users/u1", code: 0},
		{name: "catalog list products", role: constants.RoleCatalogManager, method: http.MethodGet, path: "/api/v1/admin/products", code: 0},
		{name: "catalog list users", role: constants.RoleCatalogManager, method: http.MethodGet, path: "/api/v1/admin/users", code: 403},
		{name: "customer", role: constants.RoleCustomer, method: http.MethodGet, path: "/api/v1/admin/orders", code: 403},
		{name: "anonymous", method: http.MethodGet, path: "/api/v1/admin/orders", code: 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			newRouter(tc.role).ServeHTTP(w, req)
			resp := decodeEnvelope(t, w)
			if resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, resp.StatusCode)
			}
		})
	}
}
