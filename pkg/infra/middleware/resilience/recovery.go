// Package resilience provides middleware that keeps the server healthy under
// misbehaving clients or handlers.
package resilience

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/response"
)

// PanicHandler 定义 panic 处理器类型。
type PanicHandler func(c *gin.Context, err interface{}, stack []byte)

// Recovery returns a middleware that recovers from panics with default options.
func Recovery() gin.HandlerFunc {
	return RecoveryWithOptions(*mwopts.NewRecoveryOptions(), nil)
}

// RecoveryWithOptions 捕获 handler 中的 panic，记录完整堆栈并返回 ErrPanic。
// onPanic 可为 nil；生产环境下堆栈永远不会返回给客户端。
func RecoveryWithOptions(opts mwopts.RecoveryOptions, onPanic PanicHandler) gin.HandlerFunc {
	withStack := opts.EnableStackTrace
	if withStack && isProductionEnvironment() {
		logger.Warn("stack trace in responses is disabled in production; stacks are still logged")
		withStack = false
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()

			ctxlog.GetLogger(c.Request.Context()).Errorw("panic recovered",
				"panic", r,
				"stack_trace", string(stack),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			if onPanic != nil {
				onPanic(c, r, stack)
			}

			e := errors.ErrPanic
			if withStack {
				e = e.WithMessage(fmt.Sprintf("panic: %v\n%s", r, stack))
			}
			response.Fail(c, e)
		}()
		c.Next()
	}
}

// isProductionEnvironment checks APP_ENV, then GO_ENV.
func isProductionEnvironment() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	default:
		return false
	}
}
