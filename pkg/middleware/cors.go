package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
)

const corsMaxAge = 12 * time.Hour

// CORSMiddleware 允许审核前端跨域调用. AllowOrigins 为空或处于调试模式时放开全部来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = append(config.AllowHeaders,
		"Authorization", "X-Role", "X-User", "X-Auth-Request-Email", "X-Cache-Bypass")
	config.ExposeHeaders = []string{"X-Cache", "ETag"}
	config.MaxAge = corsMaxAge

	if cfg.Debug || len(cfg.AllowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.AllowOrigins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
