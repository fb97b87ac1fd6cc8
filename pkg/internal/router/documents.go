package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/middleware"
)

var (
	viewer   = middleware.RequireMinRole(middleware.RoleViewer)
	reviewer = middleware.RequireMinRole(middleware.RoleReviewer)
	admin    = middleware.RequireMinRole(middleware.RoleAdmin)
)

// RegisterDocumentRoutes 注册文档上传、查询、分类与检索路由.
func RegisterDocumentRoutes(g *gin.RouterGroup, h *handle.DocumentHandler) {
	docs := g.Group("/documents")
	{
		docs.POST("/upload", reviewer, h.Upload)
		docs.GET("", viewer, h.List)
		docs.GET("/:id", viewer, h.Get)
	}

	g.POST("/classify", reviewer, h.Classify)
	g.POST("/search", viewer, h.Search)
}

// RegisterIntakeRoutes 注册入库与清理路由. GET 为预览，POST 执行.
// webhook 用共享密钥认证，不走角色校验.
func RegisterIntakeRoutes(g *gin.RouterGroup, h *handle.DocumentHandler) {
	g.POST("/intake-webhook", h.Webhook)

	g.GET("/bucket-scan", admin, h.ScanBucket)
	g.POST("/bucket-scan", admin, h.ScanBucket)

	g.GET("/cleanup-deleted", admin, h.Cleanup)
	g.POST("/cleanup-deleted", admin, h.Cleanup)
}

// RegisterReviewRoutes 注册人工审核路由.
func RegisterReviewRoutes(g *gin.RouterGroup, h *handle.DocumentHandler) {
	review := g.Group("/review", reviewer)
	{
		review.POST("/approve", h.ApproveBatch)
		review.POST("/delete", h.DeleteBatch)

		single := review.Group("/:id")
		{
			single.POST("/approve", h.Approve)
			single.GET("/duplicates", h.Duplicates)
			single.PATCH("", h.Edit)
			single.DELETE("", h.Delete)
		}
	}
}
