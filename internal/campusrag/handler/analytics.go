package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/pkg/httputils"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// SearchQuery 是 /data_search 的查询参数。范围校验在 biz 层。
type SearchQuery struct {
	Query  string  `form:"query"`
	Limit  int     `form:"limit"`
	Radius float64 `form:"radius"`
}

// DataSearch 统计与查询语义相近的历史提问，按小时聚合。
func (h *Handler) DataSearch(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	q := SearchQuery{Limit: biz.DefaultSearchLimit, Radius: biz.DefaultSearchRadius}
	if err := c.ShouldBindQuery(&q); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithMessage("limit must be an integer and radius a number"), nil)
		return
	}

	res, err := p.SearchData(c.Request.Context(), q.Query, q.Limit, q.Radius)
	httputils.WriteResponse(c, err, res)
}
