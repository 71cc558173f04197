package response

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

func TestErrHidesCause(t *testing.T) {
	e := errors.ErrRetrievalFailed.WithCause(fmt.Errorf("dial tcp 10.0.0.3:19530: refused"))
	r := Err(e).WithRequestID("req-1")

	assert.Equal(t, http.StatusInternalServerError, r.HTTPStatus())

	body, err := json.Marshal(r)
	assert.NoError(t, err)
	assert.NotContains(t, string(body), "10.0.0.3")
	assert.Contains(t, string(body), `"request_id":"req-1"`)
	assert.NotContains(t, string(body), "HTTPCode")
}

func TestHTTPStatusFallback(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"成功", 0, http.StatusOK},
		{"已注册", errors.ErrAudioTooLarge.Code, http.StatusRequestEntityTooLarge},
		{"未注册请求类", errors.MakeCode(77, errors.CategoryRequest, 9), http.StatusBadRequest},
		{"未注册限流类", errors.MakeCode(77, errors.CategoryRateLimit, 9), http.StatusTooManyRequests},
		{"未注册内部类", errors.MakeCode(77, errors.CategoryInternal, 9), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Code: tt.code}
			assert.Equal(t, tt.want, r.HTTPStatus())
		})
	}
}

func TestErrWithLang(t *testing.T) {
	r := ErrWithLang(errors.ErrInvalidQuery, "zh")
	assert.Equal(t, "查询内容不能为空", r.Message)
}
