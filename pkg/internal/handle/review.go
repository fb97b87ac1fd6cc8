package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/types"
)

// Approve 审核通过单个文档.
//
//	@Summary		审核通过
//	@Description	归档前检查近似重复，未确认时返回 409 与候选列表
//	@Tags			审核
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"文档 ID"
//	@Param			body	body		types.ApproveRequest	false	"确认近似重复"
//	@Success		200		{object}	types.Document
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]any	"近似重复或状态不允许"
//	@Router			/api/v1/review/{id}/approve [post]
func (h *DocumentHandler) Approve(c *gin.Context) {
	var req types.ApproveRequest
	// 允许空 body
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	doc, err := h.svc.Approve(c.Request.Context(), c.Param("id"), reviewer(c), req.Confirm)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewDocument(doc))
}

// ApproveBatch 批量审核通过.
//
//	@Summary	批量审核通过
//	@Tags		审核
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.ApproveBatchRequest	true	"文档 ID 列表"
//	@Success	200		{object}	types.ApproveBatchResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/api/v1/review/approve [post]
func (h *DocumentHandler) ApproveBatch(c *gin.Context) {
	var req types.ApproveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.ApproveBatch(c.Request.Context(), req.IDs, reviewer(c), req.Confirm)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Duplicates 预览近似重复.
//
//	@Summary	近似重复预览
//	@Tags		审核
//	@Produce	json
//	@Param		id	path		string	true	"文档 ID"
//	@Success	200	{object}	types.DuplicatesResponse
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/review/{id}/duplicates [get]
func (h *DocumentHandler) Duplicates(c *gin.Context) {
	res, err := h.svc.Duplicates(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Edit 修改分类字段.
//
//	@Summary	修改分类字段
//	@Tags		审核
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"文档 ID"
//	@Param		body	body		types.EditRequest	true	"要修改的字段"
//	@Success	200		{object}	types.Document
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Failure	409		{object}	map[string]string
//	@Router		/api/v1/review/{id} [patch]
func (h *DocumentHandler) Edit(c *gin.Context) {
	var req types.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	doc, err := h.svc.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewDocument(doc))
}

// Delete 软删除单个文档.
//
//	@Summary	删除文档
//	@Tags		审核
//	@Produce	json
//	@Param		id	path		string	true	"文档 ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Router		/api/v1/review/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Delete(c.Request.Context(), id, reviewer(c)); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

// DeleteBatch 批量软删除.
//
//	@Summary	批量删除
//	@Tags		审核
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.IDsRequest	true	"文档 ID 列表"
//	@Success	200		{object}	types.DeleteBatchResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/api/v1/review/delete [post]
func (h *DocumentHandler) DeleteBatch(c *gin.Context) {
	var req types.IDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.DeleteBatch(c.Request.Context(), req.IDs, reviewer(c))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
