// Package validator 封装 go-playground/validator，提供中英文错误信息
// 以及 campus-rag 请求体使用的自定义规则。
package validator

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	zhtrans "github.com/go-playground/validator/v10/translations/zh"
)

// 支持的语言。
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator 是带翻译器的结构体校验器，可并发使用。
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default 返回进程级共享的校验器。
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New 创建校验器，注册自定义规则与中英文翻译。
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误中的字段名使用 json 标签
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	enLocale := en.New()
	v := &Validator{
		validate: validate,
		uni:      ut.New(enLocale, enLocale, zh.New()),
	}

	if t := v.GetTranslator(LangEN); t != nil {
		_ = entrans.RegisterDefaultTranslations(validate, t)
	}
	if t := v.GetTranslator(LangZH); t != nil {
		_ = zhtrans.RegisterDefaultTranslations(validate, t)
	}

	v.registerCustomRules()
	v.registerCustomTranslations()
	return v
}

// GetTranslator 返回指定语言的翻译器，不支持的语言返回 nil。
func (v *Validator) GetTranslator(lang string) ut.Translator {
	t, found := v.uni.GetTranslator(lang)
	if !found {
		return nil
	}
	return t
}

// Struct 校验结构体，失败时返回英文信息的 *ValidationErrors。
func (v *Validator) Struct(obj any) error {
	return v.StructWithLang(obj, LangEN)
}

// StructWithLang 校验结构体，错误信息使用 lang 翻译。
func (v *Validator) StructWithLang(obj any, lang string) error {
	return v.translate(v.validate.Struct(obj), lang)
}

// Var 按 tag 校验单个值。
func (v *Validator) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag), LangEN)
}

// Engine 返回底层校验器，供 gin 的 binding 使用。
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

func (v *Validator) translate(err error, lang string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}

	trans := v.GetTranslator(lang)
	if trans == nil {
		trans = v.GetTranslator(LangEN)
	}

	out := &ValidationErrors{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(trans),
		})
	}
	return out
}
