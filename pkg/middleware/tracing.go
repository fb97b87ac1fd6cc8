package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader 响应头中回写的追踪 ID，便于按请求查日志与链路.
const TraceIDHeader = "X-Trace-Id"

// TracingMiddleware 补充 otelgin 创建的 server span：记录文档 ID 与调用方角色，
// 并在响应头回写 trace id. 需要挂在 otelgin.Middleware 之后；未启用追踪时 span 无效，直接放行.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.SpanContext().IsValid() {
			c.Next()
			return
		}

		if id := c.Param("id"); id != "" {
			span.SetAttributes(attribute.String("docvault.document_id", id))
		}

		c.Header(TraceIDHeader, span.SpanContext().TraceID().String())
		c.Next()

		// 角色由后面的 RoleMiddleware 写入
		if role, ok := GetRole(c); ok {
			span.SetAttributes(attribute.String("docvault.role", role.String()))
		}
	}
}
