package middleware

import (
	"bytes"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/docvault/pkg/cache"
)

const (
	// DefaultMaxBodyBytes 超过该大小的响应不缓存.
	DefaultMaxBodyBytes = 1 << 20
	defaultCacheTTL     = 30 * time.Second
	bypassHeader        = "X-Cache-Bypass"
)

// CacheConfig 响应缓存配置.
type CacheConfig struct {
	Cache *appcache.Cache
	TTL   time.Duration
	// VaryHeaders 参与缓存键的请求头
	VaryHeaders  []string
	MaxBodyBytes int
}

// DefaultCacheConfig 默认缓存 GET/HEAD 的 200 响应 30 秒.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{Cache: c, TTL: defaultCacheTTL, MaxBodyBytes: DefaultMaxBodyBytes}
}

// cachedResponse KV 中保存的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// CacheMiddleware 缓存只读接口的 200 响应，带 ETag 与 If-None-Match 协商.
//
// 缓存键包含路由、排序后的查询参数和调用方角色，不同角色互不共享.
// 命中时响应头 X-Cache: HIT；请求带 X-Cache-Bypass 或响应声明 no-store 时跳过.
//
//	cfg := middleware.DefaultCacheConfig(cache.New(kvStore, "http"))
//	g.GET("/documents/stats", middleware.CacheMiddleware(cfg), h.Stats)
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: nil cache")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	vary := slices.Sorted(slices.Values(cfg.VaryHeaders))

	return func(c *gin.Context) {
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) || c.GetHeader(bypassHeader) != "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := responseKey(c, vary)

		if hit, err := appcache.Get[cachedResponse](ctx, cfg.Cache, key); err == nil {
			writeCached(c, hit)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, limit: cfg.MaxBodyBytes}
		c.Writer = w
		c.Next()

		if c.Writer.Status() != http.StatusOK || w.overflow || noStore(c.Writer.Header()) {
			return
		}

		body := w.buf.Bytes()
		entry := cachedResponse{
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        body,
			ETag:        etagOf(body),
			StoredAt:    time.Now().Unix(),
		}

		// 写缓存失败只影响下一次命中率
		_ = appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL)
	}
}

func responseKey(c *gin.Context, vary []string) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	parts := []string{c.Request.Method, route}

	q := c.Request.URL.Query()
	for _, k := range slices.Sorted(maps.Keys(q)) {
		parts = append(parts, k+"="+strings.Join(q[k], ","))
	}

	for _, h := range vary {
		parts = append(parts, h+":"+c.GetHeader(h))
	}

	if role, ok := GetRole(c); ok {
		parts = append(parts, "role="+role.String())
	}

	return appcache.Key(parts...)
}

func writeCached(c *gin.Context, e cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", e.ETag)
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.FormatInt(max(time.Now().Unix()-e.StoredAt, 0), 10))

	if c.GetHeader("If-None-Match") == e.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	if e.ContentType != "" {
		h.Set("Content-Type", e.ContentType)
	}

	c.Status(e.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(e.Body)
	}

	c.Abort()
}

func etagOf(body []byte) string {
	return `"` + appcache.Key(string(body)) + `"`
}

func noStore(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))
	return strings.Contains(cc, "no-store") || strings.Contains(cc, "private")
}

// captureWriter 边写边复制响应体，超过 limit 后放弃复制.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	w.Header().Set("X-Cache", "MISS")

	return w.ResponseWriter.Write(b)
}
