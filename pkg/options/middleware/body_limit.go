package middleware

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

// BodyLimitOptions 定义请求体大小限制。
// 上传类接口（入库文档）通常需要比普通 JSON 接口更大的上限。
type BodyLimitOptions struct {
	// MaxSize 最大请求体大小（字节）
	MaxSize int64 `json:"max-size" mapstructure:"max-size"`
}

// NewBodyLimitOptions creates default body limit options.
func NewBodyLimitOptions() *BodyLimitOptions {
	return &BodyLimitOptions{MaxSize: 50 << 20}
}

// AddFlags adds flags for body limit options to the specified FlagSet.
func (o *BodyLimitOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Int64Var(&o.MaxSize, options.Join(prefixes...)+"middleware.body-limit.max-size", o.MaxSize, "Maximum request body size in bytes.")
}

// Validate validates the body limit options.
func (o *BodyLimitOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.MaxSize <= 0 {
		return []error{errors.New("body limit max-size must be positive")}
	}
	return nil
}
