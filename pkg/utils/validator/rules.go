package validator

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 自定义校验标签
const (
	TagNotBlank = "notblank" // 去掉首尾空白后非空
	TagLangCode = "langcode" // 语言代码，如 en、es、zh-CN
	TagHTTPURL  = "httpurl"  // 带主机名的 http/https 地址
)

var langCodeRegex = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

func (v *Validator) registerCustomRules() {
	rules := map[string]validator.Func{
		TagNotBlank: validateNotBlank,
		TagLangCode: validateLangCode,
		TagHTTPURL:  validateHTTPURL,
	}
	for tag, fn := range rules {
		_ = v.validate.RegisterValidation(tag, fn)
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateLangCode(fl validator.FieldLevel) bool {
	return langCodeRegex.MatchString(fl.Field().String())
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
