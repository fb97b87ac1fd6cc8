package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/types"
)

// Upload 上传单个 PDF.
//
//	@Summary		上传文档
//	@Description	上传 PDF 到收件目录，内容与已有文档相同时返回已有文档 ID
//	@Tags			文档
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file					true	"PDF 文件"
//	@Success		201		{object}	types.UploadResponse	"新建"
//	@Success		200		{object}	types.UploadResponse	"内容已存在"
//	@Failure		400		{object}	map[string]string		"文件不合法"
//	@Failure		500		{object}	map[string]string		"服务器内部错误"
//	@Router			/api/v1/documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	res, err := h.svc.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		abort(c, err)
		return
	}

	status := http.StatusCreated
	if res.Status == service.StatusExists {
		status = http.StatusOK
	}

	c.JSON(status, res)
}

// List 分页列出文档.
//
//	@Summary	文档列表
//	@Tags		文档
//	@Produce	json
//	@Param		status		query		string	false	"状态"	Enums(uploaded, pending_approval, archived, deleted)
//	@Param		category	query		string	false	"类别"	Enums(contract, document, invoice)
//	@Param		source		query		string	false	"来源"	Enums(email, upload, bucket-scan)
//	@Param		page		query		int		false	"页码"
//	@Param		page_size	query		int		false	"每页数量"
//	@Success	200			{object}	types.ListDocumentsResponse
//	@Failure	400			{object}	map[string]string
//	@Router		/api/v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var req types.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Get 文档详情.
//
//	@Summary	文档详情
//	@Tags		文档
//	@Produce	json
//	@Param		id	path		string	true	"文档 ID"
//	@Success	200	{object}	types.Document
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewDocument(doc))
}

// Stats 状态与类别统计.
//
//	@Summary	文档统计
//	@Tags		文档
//	@Produce	json
//	@Success	200	{object}	types.StatsResponse
//	@Router		/api/v1/documents/stats [get]
func (h *DocumentHandler) Stats(c *gin.Context) {
	res, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Classify 批量分类.
//
//	@Summary		批量分类
//	@Description	依次分类 uploaded 状态的文档，单个失败不影响其它文档
//	@Tags			分类
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.IDsRequest		true	"文档 ID 列表"
//	@Success		200		{object}	types.ClassifyResponse
//	@Failure		400		{object}	map[string]string	"ids 为空"
//	@Failure		404		{object}	map[string]string	"没有任何 ID 命中"
//	@Router			/api/v1/classify [post]
func (h *DocumentHandler) Classify(c *gin.Context) {
	var req types.IDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.ClassifyBatch(c.Request.Context(), req.IDs)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Search 检索已归档文档.
//
//	@Summary		检索
//	@Description	语义检索优先，不可用时回退到关键词检索
//	@Tags			检索
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.SearchRequest	true	"查询"
//	@Success		200		{object}	types.SearchResponse
//	@Failure		400		{object}	map[string]string
//	@Router			/api/v1/search [post]
func (h *DocumentHandler) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Search(c.Request.Context(), req.Q)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
