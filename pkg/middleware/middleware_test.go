package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestAuthMiddleware(t *testing.T) {
	conf := configs.AuthConfig{Enabled: true, SkipPaths: []string{"/api/v1/health"}}

	e := gin.New()
	e.Use(middleware.AuthMiddleware(conf))
	e.GET("/api/v1/documents", func(c *gin.Context) { c.String(http.StatusOK, middleware.Identity(c)) })
	e.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header map[string]string
		code   int
		body   string
	}{
		{"missing identity", "/api/v1/documents", nil, http.StatusUnauthorized, ""},
		{"oauth2 proxy email", "/api/v1/documents", map[string]string{"X-Auth-Request-Email": "ana@example.com"}, http.StatusOK, "ana@example.com"},
		{"forwarded email", "/api/v1/documents", map[string]string{"X-Forwarded-Email": "bo@example.com"}, http.StatusOK, "bo@example.com"},
		{"query ignored", "/api/v1/documents?user=eve", nil, http.StatusUnauthorized, ""},
		{"skipped path", "/api/v1/health", nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(e, http.MethodGet, tt.path, tt.header)
			if w.Code != tt.code {
				t.Fatalf("code = %d, want %d", w.Code, tt.code)
			}

			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRoleGates(t *testing.T) {
	conf := configs.AuthConfig{
		Enabled:     true,
		RoleHeader:  "X-Role",
		DefaultRole: "viewer",
		AdminUsers:  []string{"Root@example.com"},
	}

	e := gin.New()
	e.Use(middleware.AuthMiddleware(conf), middleware.RoleMiddleware(conf))
	e.GET("/read", middleware.RequireMinRole(middleware.RoleViewer), func(c *gin.Context) { c.Status(http.StatusOK) })
	e.POST("/review", middleware.RequireMinRole(middleware.RoleReviewer), func(c *gin.Context) { c.Status(http.StatusOK) })
	e.POST("/admin", middleware.RequireMinRole(middleware.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	user := map[string]string{"X-User": "ana@example.com"}
	reviewer := map[string]string{"X-User": "ana@example.com", "X-Role": "reviewer"}
	admin := map[string]string{"X-User": "root@example.com"}

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		code   int
	}{
		{"viewer reads", http.MethodGet, "/read", user, http.StatusOK},
		{"viewer cannot review", http.MethodPost, "/review", user, http.StatusForbidden},
		{"reviewer reviews", http.MethodPost, "/review", reviewer, http.StatusOK},
		{"reviewer cannot scan", http.MethodPost, "/admin", reviewer, http.StatusForbidden},
		{"listed admin", http.MethodPost, "/admin", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(e, tt.method, tt.path, tt.header); w.Code != tt.code {
				t.Fatalf("code = %d, want %d", w.Code, tt.code)
			}
		})
	}
}

func TestRoleDisabledAuthIsAdmin(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RoleMiddleware(configs.AuthConfig{}))
	e.POST("/admin", middleware.RequireMinRole(middleware.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(e, http.MethodPost, "/admin", nil); w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", w.Code)
	}
}

func TestParseRole(t *testing.T) {
	if got := middleware.ParseRole(" Admin ", middleware.RoleViewer); got != middleware.RoleAdmin {
		t.Fatalf("got %v", got)
	}

	if got := middleware.ParseRole("owner", middleware.RoleReviewer); got != middleware.RoleReviewer {
		t.Fatalf("unknown role should fall back, got %v", got)
	}
}

func TestCacheMiddleware(t *testing.T) {
	calls := 0

	e := gin.New()
	e.GET("/stats", middleware.CacheMiddleware(middleware.DefaultCacheConfig(cache.New(kv.NewMemory(), "http"))),
		func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"total": 3})
		})

	first := serve(e, http.MethodGet, "/stats", nil)
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first: code=%d x-cache=%q", first.Code, first.Header().Get("X-Cache"))
	}

	second := serve(e, http.MethodGet, "/stats", nil)
	if second.Header().Get("X-Cache") != "HIT" || second.Body.String() != first.Body.String() {
		t.Fatalf("second: x-cache=%q body=%q", second.Header().Get("X-Cache"), second.Body.String())
	}

	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}

	etag := second.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag on cached response")
	}

	if w := serve(e, http.MethodGet, "/stats", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("conditional get = %d, want 304", w.Code)
	}

	serve(e, http.MethodGet, "/stats", map[string]string{"X-Cache-Bypass": "1"})
	serve(e, http.MethodGet, "/stats?from=2025-01-01", nil)

	if calls != 3 {
		t.Fatalf("bypass and new query should reach handler, calls = %d", calls)
	}
}

func TestCacheSkipsErrors(t *testing.T) {
	calls := 0

	e := gin.New()
	e.GET("/stats", middleware.CacheMiddleware(middleware.DefaultCacheConfig(cache.New(kv.NewMemory(), "http"))),
		func(c *gin.Context) {
			calls++
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db down"})
		})

	serve(e, http.MethodGet, "/stats", nil)
	serve(e, http.MethodGet, "/stats", nil)

	if calls != 2 {
		t.Fatalf("error responses must not be cached, calls = %d", calls)
	}
}
