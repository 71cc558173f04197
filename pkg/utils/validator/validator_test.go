package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type questionRequest struct {
	UserMessage string `json:"userMessage" validate:"notblank"`
}

type urlRequest struct {
	URL string `json:"url" validate:"required,httpurl"`
}

type translateQuery struct {
	Lang string `form:"lang" validate:"langcode"`
}

func TestCustomRules(t *testing.T) {
	v := New()
	tests := []struct {
		name    string
		obj     any
		wantTag string
	}{
		{"问题非空", &questionRequest{UserMessage: "where is the library"}, ""},
		{"问题只有空白", &questionRequest{UserMessage: "  \t"}, TagNotBlank},
		{"https 地址", &urlRequest{URL: "https://www.wichita.edu/about"}, ""},
		{"缺少协议", &urlRequest{URL: "www.wichita.edu"}, TagHTTPURL},
		{"ftp 地址", &urlRequest{URL: "ftp://example.com/a"}, TagHTTPURL},
		{"空地址", &urlRequest{}, "required"},
		{"语言代码", &translateQuery{Lang: "es"}, ""},
		{"带地区的语言代码", &translateQuery{Lang: "zh-CN"}, ""},
		{"非法语言代码", &translateQuery{Lang: "spanish!"}, TagLangCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.obj)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs *ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Equal(t, 1, verrs.Count())
			assert.Equal(t, tt.wantTag, verrs.Errors[0].Tag)
		})
	}
}

func TestFieldNamesAndTranslations(t *testing.T) {
	v := New()

	err := v.Struct(&questionRequest{})
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "userMessage", verrs.Errors[0].Field)
	assert.Equal(t, "userMessage must not be blank", verrs.First())
	assert.Equal(t, "validation failed: userMessage must not be blank", err.Error())

	err = v.StructWithLang(&questionRequest{}, LangZH)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "userMessage不能为空", verrs.First())

	err = v.Struct(&translateQuery{Lang: "x"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "lang", verrs.Errors[0].Field)
}

func TestVarAndDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.NoError(t, Default().Var("http://localhost:8000/x", TagHTTPURL))
	assert.Error(t, Default().Var("not a url", TagHTTPURL))
}

func TestValidationErrorsNil(t *testing.T) {
	var e *ValidationErrors
	assert.Equal(t, "", e.Error())
	assert.Equal(t, 0, e.Count())
	assert.Equal(t, "", e.First())
}
