package security

import (
	"strings"

	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

// Security header constants.
const (
	HeaderContentSecurityPolicy = "Content-Security-Policy"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
)

// FrameAncestors sets the Content-Security-Policy frame-ancestors directive.
// The root path may never be framed; every other path may be framed by the
// configured origins only.
func FrameAncestors(opts mwopts.SecurityOptions) gin.HandlerFunc {
	rootPolicy := "frame-ancestors 'none'"
	apiPolicy := "frame-ancestors " + strings.Join(opts.FrameAncestors, " ")
	if len(opts.FrameAncestors) == 0 {
		apiPolicy = rootPolicy
	}

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/" {
			c.Header(HeaderContentSecurityPolicy, rootPolicy)
		} else {
			c.Header(HeaderContentSecurityPolicy, apiPolicy)
		}
		c.Header(HeaderXContentTypeOptions, "nosniff")
		c.Next()
	}
}
