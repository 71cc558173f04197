package provider

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// ContextKeyProvider 是 gin 上下文中保存 Provider 的键。
const ContextKeyProvider = "campusrag.provider"

type providerKey struct{}

// WithProvider 把 Provider 绑定到 context。
func WithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext 取出绑定的 Provider。
func FromContext(ctx context.Context) (Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(Provider)
	return p, ok
}

// Bind 返回把请求绑定到 p 的中间件。p 在启动时构造，这里只传递引用。
func Bind(p Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyProvider, p)
		c.Request = c.Request.WithContext(WithProvider(c.Request.Context(), p))
		c.Next()
	}
}

// FromGin 取出请求绑定的 Provider。未绑定属于路由组装错误。
func FromGin(c *gin.Context) (Provider, error) {
	if v, ok := c.Get(ContextKeyProvider); ok {
		if p, ok := v.(Provider); ok {
			return p, nil
		}
	}
	return nil, errors.ErrInternal.WithMessage("no provider bound to request")
}
