// Package handler 把 HTTP 请求转换为 Provider 调用。
// 租户由路由层绑定到请求上下文，handler 本身不区分租户。
package handler

import (
	stderrors "errors"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/campusrag/provider"
	"github.com/kart-io/campus-rag/internal/pkg/httputils"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/validator"
)

// formFileField 是上传接口的 multipart 字段名。
const formFileField = "file"

// Handler 处理租户前缀下的全部接口。
type Handler struct {
	validate *validator.Validator
}

// New 创建 Handler。
func New() *Handler {
	return &Handler{validate: validator.Default()}
}

// tenant 取出路由绑定的 Provider，失败时已写出错误响应。
func tenant(c *gin.Context) (provider.Provider, bool) {
	p, err := provider.FromGin(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return nil, false
	}
	return p, true
}

// check 校验请求结构体，失败时转换为 ErrInvalidParam。
func (h *Handler) check(obj any) error {
	err := h.validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs *validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return errors.ErrInvalidParam.WithMessage(verrs.First())
	}
	return errors.ErrInvalidParam.WithCause(err)
}

// readUpload 读取 multipart 文件。limit > 0 时最多读取 limit 字节。
func readUpload(c *gin.Context, limit int64) ([]byte, string, error) {
	fh, err := c.FormFile(formFileField)
	if err != nil {
		return nil, "", errors.ErrMissingParam.WithMessage("file is required")
	}
	data, err := readFileHeader(fh, limit)
	if err != nil {
		return nil, "", errors.ErrUnreadableFile.WithCause(err)
	}
	return data, fh.Filename, nil
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit)
	}
	return io.ReadAll(r)
}
