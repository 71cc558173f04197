package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func (v *Validator) registerCustomTranslations() {
	if t := v.GetTranslator(LangEN); t != nil {
		v.registerTranslations(t, map[string]string{
			TagNotBlank: "{0} must not be blank",
			TagLangCode: "{0} must be a language code such as en or zh-CN",
			TagHTTPURL:  "{0} must be an http or https URL",
		})
	}
	if t := v.GetTranslator(LangZH); t != nil {
		v.registerTranslations(t, map[string]string{
			TagNotBlank: "{0}不能为空",
			TagLangCode: "{0}必须是语言代码，例如 en 或 zh-CN",
			TagHTTPURL:  "{0}必须是 http 或 https 地址",
		})
	}
}

func (v *Validator) registerTranslations(trans ut.Translator, messages map[string]string) {
	for tag, message := range messages {
		_ = v.validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Error()
				}
				return t
			},
		)
	}
}
