// Package middleware provides the configuration of the HTTP middleware chain.
// Options here are plain, serializable values; runtime dependencies such as the
// redis client are injected when the middleware is built.
package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

// Options groups the configuration of every middleware the server installs.
type Options struct {
	RequestID *RequestIDOptions `json:"request-id" mapstructure:"request-id"`
	Tracing   *TracingOptions   `json:"tracing" mapstructure:"tracing"`
	Logger    *LoggerOptions    `json:"logger" mapstructure:"logger"`
	Recovery  *RecoveryOptions  `json:"recovery" mapstructure:"recovery"`
	CORS      *CORSOptions      `json:"cors" mapstructure:"cors"`
	Security  *SecurityOptions  `json:"security" mapstructure:"security"`
	BodyLimit *BodyLimitOptions `json:"body-limit" mapstructure:"body-limit"`
	RateLimit *RateLimitOptions `json:"rate-limit" mapstructure:"rate-limit"`
}

var _ options.IOptions = (*Options)(nil)

// NewOptions creates middleware options with defaults.
func NewOptions() *Options {
	return &Options{
		RequestID: NewRequestIDOptions(),
		Tracing:   NewTracingOptions(),
		Logger:    NewLoggerOptions(),
		Recovery:  NewRecoveryOptions(),
		CORS:      NewCORSOptions(),
		Security:  NewSecurityOptions(),
		BodyLimit: NewBodyLimitOptions(),
		RateLimit: NewRateLimitOptions(),
	}
}

// AddFlags adds flags of every middleware to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.RequestID.AddFlags(fs, prefixes...)
	o.Tracing.AddFlags(fs, prefixes...)
	o.Logger.AddFlags(fs, prefixes...)
	o.Recovery.AddFlags(fs, prefixes...)
	o.CORS.AddFlags(fs, prefixes...)
	o.Security.AddFlags(fs, prefixes...)
	o.BodyLimit.AddFlags(fs, prefixes...)
	o.RateLimit.AddFlags(fs, prefixes...)
}

// Validate validates every middleware option.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	errs = append(errs, o.RequestID.Validate()...)
	errs = append(errs, o.CORS.Validate()...)
	errs = append(errs, o.Security.Validate()...)
	errs = append(errs, o.BodyLimit.Validate()...)
	errs = append(errs, o.RateLimit.Validate()...)
	return errs
}
