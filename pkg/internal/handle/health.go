package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
	ctxPkg "github.com/yeisme/docvault/pkg/context"
)

const timeout = 2 * time.Second

// Health 存活检查.
//
//	@Summary	存活检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": configs.AppVersion})
}

// Ready 就绪检查：数据库与对象存储都可用才返回 200.
//
//	@Summary	就绪检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/ready [get]
func Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	mgr := ctxPkg.GetManager(ctx)
	if mgr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "storage manager not initialized"})
		return
	}

	status, checks := http.StatusOK, gin.H{}

	for name, err := range mgr.HealthCheck(ctx) {
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable

			continue
		}

		checks[name] = "ok"
	}

	ready := "ok"
	if status != http.StatusOK {
		ready = "unhealthy"
	}

	c.JSON(status, gin.H{"status": ready, "checks": checks})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	component(c, "db", func(ctx context.Context) error {
		dbc := ctxPkg.GetDBClient(ctx)
		if dbc == nil || dbc.DB == nil {
			return errors.New("db client not initialized")
		}

		return dbc.HealthCheck(ctx)
	})
}

// HealthS3 对象存储健康检查.
func HealthS3(c *gin.Context) {
	component(c, "s3", func(ctx context.Context) error {
		store := ctxPkg.GetS3Client(ctx)
		if store == nil {
			return errors.New("object store not initialized")
		}

		return store.HealthCheck(ctx)
	})
}

// HealthKV 缓存健康检查.
//
//	@Summary	缓存健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	component(c, "kv", func(ctx context.Context) error {
		return ctxPkg.GetKVClient(ctx).Ping(ctx)
	})
}

// HealthMQ 消息队列健康检查. 未启用领域事件时不创建客户端，视为健康.
func HealthMQ(c *gin.Context) {
	if ctxPkg.GetMQClient(c.Request.Context()) == nil {
		c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}

func component(c *gin.Context, name string, check func(context.Context) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := check(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": name, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": name, "status": "ok"})
}
