package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/internal/pkg/httputils"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// IngestURLRequest 是 /ingest_url 的请求体。
type IngestURLRequest struct {
	URL string `json:"url" validate:"required,httpurl"`
}

// DeleteQuery 是 /document_delete 的查询参数。"*" 表示删除全部。
type DeleteQuery struct {
	ID string `form:"id"`
}

// Ingest 入库上传的文档。文档大小由全局 body limit 约束。
func (h *Handler) Ingest(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	data, filename, err := readUpload(c, 0)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	res, err := p.IngestDocument(c.Request.Context(), data, filename)
	httputils.WriteResponse(c, err, res)
}

// IngestURL 抓取网页并入库。
func (h *Handler) IngestURL(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	var req IngestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithCause(err), nil)
		return
	}
	if err := h.check(&req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if len(req.URL) > store.MaxSourceLen {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithMessagef("url must be at most %d bytes", store.MaxSourceLen), nil)
		return
	}

	res, err := p.IngestURL(c.Request.Context(), req.URL)
	httputils.WriteResponse(c, err, res)
}

// DeleteDocuments 按来源删除知识库文档。
func (h *Handler) DeleteDocuments(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	var q DeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithCause(err), nil)
		return
	}

	report, err := p.DeleteDocuments(c.Request.Context(), q.ID)
	httputils.WriteResponse(c, err, report)
}
