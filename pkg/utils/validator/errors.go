package validator

import "strings"

// FieldError 描述单个字段的校验失败。
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors 汇总一次校验的全部失败。
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Count 返回失败字段数。
func (e *ValidationErrors) Count() int {
	if e == nil {
		return 0
	}
	return len(e.Errors)
}

// First 返回第一条信息，没有时返回空串。
func (e *ValidationErrors) First() string {
	if e.Count() == 0 {
		return ""
	}
	return e.Errors[0].Message
}
