package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/types"
)

// Webhook 邮件自动化入库回调.
//
//	@Summary		邮件入库 webhook
//	@Description	登记上游已写入存储桶的文档，按 id 幂等
//	@Tags			入库
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string					true	"Bearer <webhook_secret>"
//	@Param			body			body		types.WebhookRequest	true	"文档元数据"
//	@Success		200				{object}	types.WebhookResponse
//	@Failure		400				{object}	map[string]string
//	@Failure		401				{object}	map[string]string
//	@Router			/api/v1/intake-webhook [post]
func (h *DocumentHandler) Webhook(c *gin.Context) {
	if err := h.svc.CheckWebhookToken(c.GetHeader("Authorization")); err != nil {
		abort(c, err)
		return
	}

	var req types.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Webhook(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ScanBucket 扫描收件目录. GET 只预览.
//
//	@Summary	扫描收件目录
//	@Tags		入库
//	@Produce	json
//	@Success	200	{object}	types.ScanResponse
//	@Router		/api/v1/bucket-scan [get]
//	@Router		/api/v1/bucket-scan [post]
func (h *DocumentHandler) ScanBucket(c *gin.Context) {
	res, err := h.svc.ScanBucket(c.Request.Context(), c.Request.Method == http.MethodGet)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Cleanup 清除软删除的文档. GET 只预览.
//
//	@Summary	清理已删除文档
//	@Tags		入库
//	@Produce	json
//	@Success	200	{object}	types.CleanupResponse
//	@Router		/api/v1/cleanup-deleted [get]
//	@Router		/api/v1/cleanup-deleted [post]
func (h *DocumentHandler) Cleanup(c *gin.Context) {
	res, err := h.svc.Cleanup(c.Request.Context(), c.Request.Method == http.MethodGet)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
