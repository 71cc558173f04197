package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

// TracingOptions defines server span middleware options.
type TracingOptions struct {
	SkipPaths []string `json:"skip-paths" mapstructure:"skip-paths"`
}

// NewTracingOptions creates default tracing middleware options.
func NewTracingOptions() *TracingOptions {
	return &TracingOptions{SkipPaths: []string{"/health"}}
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *TracingOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.SkipPaths, options.Join(prefixes...)+"middleware.tracing.skip-paths", o.SkipPaths, "Paths that get no server span.")
}
