// Package handle 实现 HTTP 请求处理器. 处理器只做参数绑定与错误映射，业务逻辑在 service 中.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/middleware"
	"github.com/yeisme/docvault/pkg/rule"
)

// DocumentHandler 文档相关处理器，持有启动时构造的服务实例.
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler 创建处理器.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	// gin 绑定与 rule 共用同一个 validator，标签为 rule
	rule.Engine()

	return &DocumentHandler{svc: svc}
}

// reviewer 从认证代理注入的请求头中取审核人，取不到时返回空串.
func reviewer(c *gin.Context) string {
	return middleware.Identity(c)
}

// abort 把服务层错误映射为状态码.
func abort(c *gin.Context, err error) {
	var dup *service.DuplicateError

	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "duplicates": dup.Candidates, "blocked": dup.Blocked})
	case errors.Is(err, service.ErrInvalidInput):
		invalid(c, err)
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Logger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	log.Logger().Warn().Err(err).Str("path", c.FullPath()).Msg("invalid request")
	invalid(c, err)
}

// invalid 返回 400，校验错误附带逐字段说明.
func invalid(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if fields := rule.Errors(err); len(fields) > 0 {
		body["fields"] = fields
	}

	c.JSON(http.StatusBadRequest, body)
}
