package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/pkg/httputils"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// QuestionRequest 是 /qa 的请求体。
type QuestionRequest struct {
	UserMessage string `json:"userMessage" validate:"notblank"`
}

// AnswerResponse 是 /qa 的响应体。
type AnswerResponse struct {
	Response string `json:"response"`
}

// QA 检索增强问答。
func (h *Handler) QA(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithCause(err), nil)
		return
	}
	if err := h.check(&req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	answer, err := p.AnswerQuery(c.Request.Context(), req.UserMessage)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, AnswerResponse{Response: answer})
}
