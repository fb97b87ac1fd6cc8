package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
)

// identityKey 审核人身份在 gin.Context 中的键.
const identityKey = "docvault.identity"

// identityHeaders 按优先级读取的身份头，前两个由 oauth2-proxy 注入.
var identityHeaders = []string{"X-Auth-Request-Email", "X-Forwarded-Email", "X-User"}

// AuthMiddleware 基于 oauth2-proxy 注入的请求头识别审核人.
//   - 解析到的身份写入上下文，审核记录的 reviewed_by 取自这里
//   - 启用后缺少身份头的请求返回 401，SkipPaths 前缀除外（健康检查、webhook 等）
//   - DevAllowQuery 允许本地调试时用 ?user= 代替身份头
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFromRequest(c, conf.DevAllowQuery || !conf.Enabled)
		if id != "" {
			c.Set(identityKey, id)
		}

		if !conf.Enabled || id != "" || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// Identity 返回当前请求的审核人，未经过 AuthMiddleware 时直接读请求头.
func Identity(c *gin.Context) string {
	if v, ok := c.Get(identityKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return identityFromRequest(c, true)
}

func identityFromRequest(c *gin.Context, allowQuery bool) string {
	for _, h := range identityHeaders {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}

	if allowQuery {
		return strings.TrimSpace(c.Query("user"))
	}

	return ""
}

func isSkippedPath(path string, skips []string) bool {
	for _, p := range skips {
		if p = strings.TrimSpace(p); p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
