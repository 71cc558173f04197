package response

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// HeaderRequestID 由 request id 中间件写入响应头，这里直接读取以避免依赖中间件包。
const HeaderRequestID = "X-Request-ID"

// Fail aborts the request and writes the error envelope for e.
func Fail(c *gin.Context, e *errors.Errno) {
	if e == nil {
		e = errors.ErrInternal
	}
	r := ErrWithLang(e, language(c)).WithRequestID(c.Writer.Header().Get(HeaderRequestID))
	c.AbortWithStatusJSON(r.HTTPStatus(), r)
}

// language picks the message language from Accept-Language ("zh*" or English).
func language(c *gin.Context) string {
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), "zh") {
		return "zh"
	}
	return "en"
}
