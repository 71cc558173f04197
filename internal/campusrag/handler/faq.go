package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/pkg/httputils"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// TranslateQuery 是 /faqs/translate 的查询参数。
type TranslateQuery struct {
	Lang string `form:"lang,default=en" validate:"langcode"`
}

// FAQs 返回 FAQ 列表。
func (h *Handler) FAQs(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}
	faqs, err := p.GetFAQs(c.Request.Context())
	httputils.WriteResponse(c, err, faqs)
}

// TranslateFAQs 返回翻译到目标语言的 FAQ 列表。
func (h *Handler) TranslateFAQs(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	var q TranslateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithCause(err), nil)
		return
	}
	if err := h.check(&q); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	faqs, err := p.TranslateFAQs(c.Request.Context(), q.Lang)
	httputils.WriteResponse(c, err, faqs)
}
