package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/docvault/pkg/context"
	"github.com/yeisme/docvault/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器放进请求上下文，健康检查处理器从中取各个客户端.
// manager 为 nil 时不注入，/health/ready 会报告未就绪.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager != nil {
			c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		}

		c.Next()
	}
}
