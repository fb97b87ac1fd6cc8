package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
)

// componentChecks /health/<name> 下的单组件检查.
var componentChecks = map[string]gin.HandlerFunc{
	"db": handle.HealthDB,
	"s3": handle.HealthS3,
	"kv": handle.HealthKV,
	"mq": handle.HealthMQ,
}

// RegisterHealthCheckRoute 存活、就绪与单组件检查，不做角色限制.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Health)
	g.GET("/health/ready", handle.Ready)

	for name, h := range componentChecks {
		g.GET("/health/"+name, h)
	}
}
