package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeCodeRoundTrip(t *testing.T) {
	code := MakeCode(ServiceCampusRAG, CategoryInternal, 3)
	assert.Equal(t, 2007003, code)

	svc, cat, seq := ParseCode(code)
	assert.Equal(t, ServiceCampusRAG, svc)
	assert.Equal(t, CategoryInternal, cat)
	assert.Equal(t, 3, seq)

	assert.True(t, IsServerError(code))
	assert.False(t, IsClientError(code))
	assert.True(t, IsClientError(ErrEmptyExtractedText.Code))
}

func TestWithCauseKeepsIdentity(t *testing.T) {
	cause := fmt.Errorf("milvus: connection refused")
	err := ErrRetrievalFailed.WithCause(cause)

	assert.True(t, stderrors.Is(err, ErrRetrievalFailed))
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, err.Cause())
	assert.Nil(t, ErrRetrievalFailed.Cause(), "原始错误不应被修改")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: -1},
		{name: "Errno 原样返回", err: ErrInvalidQuery, want: ErrInvalidQuery.Code},
		{name: "包装后的 Errno", err: fmt.Errorf("handler: %w", ErrAudioTooLarge), want: ErrAudioTooLarge.Code},
		{name: "普通错误转为内部错误", err: stderrors.New("boom"), want: ErrInternal.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestCampusCodesStatus(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, ErrAudioTooLarge.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ErrEmptyExtractedText.HTTPStatus())
	assert.Equal(t, http.StatusNotImplemented, ErrNotImplemented.HTTPStatus())
	assert.Equal(t, codes.Unimplemented, ErrNotImplemented.GRPCStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrTranslateFailed.HTTPStatus())

	e, ok := Lookup(ErrFAQFetchFailed.Code)
	require.True(t, ok)
	assert.Same(t, ErrFAQFetchFailed, e)
}

func TestNewErrorValidation(t *testing.T) {
	assert.Panics(t, func() { NewRequestErr(ServiceCampusRAG, 1, "dup", "重复") }, "重复注册应 panic")
	assert.Panics(t, func() { NewInternalErr(100, 1, "bad", "") })
	assert.Panics(t, func() { NewInternalErr(88, 1, "", "") })
}

func TestMessageLanguage(t *testing.T) {
	assert.Equal(t, "提取的文本为空", ErrEmptyExtractedText.Message("zh-CN"))
	assert.Equal(t, "Extracted text is empty", ErrEmptyExtractedText.Message("en"))
	assert.Equal(t, "custom", ErrInvalidParam.WithMessage("custom").Message("en"))
}
