// Package security provides CORS and response security header middleware.
package security

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

// CORS returns a CORS middleware with default options.
func CORS() gin.HandlerFunc {
	return CORSWithOptions(*mwopts.NewCORSOptions())
}

// ValidateOrigins checks that every non-wildcard origin is scheme://host[:port].
func ValidateOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		if err := validateOriginFormat(origin); err != nil {
			return fmt.Errorf("CORS: invalid origin format '%s': %w", origin, err)
		}
	}
	return nil
}

func validateOriginFormat(origin string) error {
	idx := strings.Index(origin, "://")
	if idx <= 0 {
		return fmt.Errorf("origin must include scheme (http:// or https://)")
	}
	if rest := origin[idx+3:]; rest == "" || strings.ContainsAny(rest, "/?#") {
		return fmt.Errorf("origin must be scheme://host[:port] without path, query, or fragment")
	}
	return nil
}

// CORSWithOptions returns a CORS middleware with CORSOptions.
// 配置错误在启动时 panic。
func CORSWithOptions(opts mwopts.CORSOptions) gin.HandlerFunc {
	if errs := opts.Validate(); len(errs) > 0 {
		panic(errs[0])
	}
	if err := ValidateOrigins(opts.AllowOrigins); err != nil {
		panic(err)
	}
	if opts.MaxAge == 0 {
		opts.MaxAge = 86400
	}

	allowMethods := strings.Join(opts.AllowMethods, ", ")
	allowHeaders := strings.Join(opts.AllowHeaders, ", ")
	maxAge := strconv.Itoa(opts.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigin := ""
		for _, o := range opts.AllowOrigins {
			if o == "*" || o == origin {
				allowedOrigin = o
				break
			}
		}
		if allowedOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		if opts.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
