package middleware

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

// SecurityOptions controls the Content-Security-Policy frame-ancestors header.
// The root path always gets 'none'; every other path may be embedded by FrameAncestors.
type SecurityOptions struct {
	FrameAncestors []string `json:"frame-ancestors" mapstructure:"frame-ancestors"`
}

// NewSecurityOptions creates default security options.
func NewSecurityOptions() *SecurityOptions {
	return &SecurityOptions{FrameAncestors: []string{"http://localhost:3000"}}
}

// AddFlags adds flags for security options to the specified FlagSet.
func (o *SecurityOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.FrameAncestors, options.Join(prefixes...)+"middleware.security.frame-ancestors", o.FrameAncestors, "Origins allowed to embed the API pages in a frame.")
}

// Validate validates the security options.
func (o *SecurityOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if len(o.FrameAncestors) == 0 {
		return []error{errors.New("security: at least one frame ancestor is required")}
	}
	return nil
}
