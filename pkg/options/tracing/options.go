// Package tracing provides OpenTelemetry tracing options.
package tracing

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// SamplerType defines the type of sampler to use.
type SamplerType string

const (
	SamplerAlwaysOn    SamplerType = "always_on"
	SamplerAlwaysOff   SamplerType = "always_off"
	SamplerRatio       SamplerType = "ratio"
	SamplerParentBased SamplerType = "parent_based"
)

// ExporterType defines the type of exporter to use.
type ExporterType string

const (
	ExporterOTLPGRPC ExporterType = "otlp_grpc"
	ExporterOTLPHTTP ExporterType = "otlp_http"
	ExporterStdout   ExporterType = "stdout"
)

// Options defines configuration for OpenTelemetry tracing.
//
// Spans and W3C trace context propagation are always active so trace ids show
// up in logs and outbound requests. Enabled only controls exporting.
type Options struct {
	// Enabled turns on span export.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Environment is the deployment environment attribute.
	Environment string `json:"environment" mapstructure:"environment"`
	// ExporterType specifies which exporter to use.
	ExporterType ExporterType `json:"exporter-type" mapstructure:"exporter-type"`
	// Endpoint is the OTLP endpoint: "localhost:4317" for gRPC, "localhost:4318" for HTTP.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// Insecure disables TLS for the OTLP connection.
	Insecure bool `json:"insecure" mapstructure:"insecure"`
	// Headers are sent with every OTLP request.
	Headers map[string]string `json:"headers" mapstructure:"headers"`
	// SamplerType specifies the sampling strategy.
	SamplerType SamplerType `json:"sampler-type" mapstructure:"sampler-type"`
	// SamplerRatio is used by the ratio and parent_based samplers.
	SamplerRatio float64 `json:"sampler-ratio" mapstructure:"sampler-ratio"`
	// BatchTimeout is the maximum delay before a batch is exported.
	BatchTimeout time.Duration `json:"batch-timeout" mapstructure:"batch-timeout"`
	// ExportTimeout bounds one export call.
	ExportTimeout time.Duration `json:"export-timeout" mapstructure:"export-timeout"`
	// ShutdownTimeout bounds flushing pending spans on shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions creates default tracing options. Export is disabled.
func NewOptions() *Options {
	return &Options{
		Enabled:         false,
		Environment:     "development",
		ExporterType:    ExporterOTLPGRPC,
		Endpoint:        "localhost:4317",
		Insecure:        true,
		Headers:         make(map[string]string),
		SamplerType:     SamplerParentBased,
		SamplerRatio:    1.0,
		BatchTimeout:    5 * time.Second,
		ExportTimeout:   30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "tracing."
	fs.BoolVar(&o.Enabled, prefix+"enabled", o.Enabled, "Export spans to the configured exporter.")
	fs.StringVar(&o.Environment, prefix+"environment", o.Environment, "Deployment environment attribute.")
	fs.StringVar((*string)(&o.ExporterType), prefix+"exporter-type", string(o.ExporterType), "Exporter type (otlp_grpc, otlp_http, stdout).")
	fs.StringVar(&o.Endpoint, prefix+"endpoint", o.Endpoint, "OTLP exporter endpoint.")
	fs.BoolVar(&o.Insecure, prefix+"insecure", o.Insecure, "Disable TLS for the OTLP connection.")
	fs.StringToStringVar(&o.Headers, prefix+"headers", o.Headers, "Headers sent with OTLP requests.")
	fs.StringVar((*string)(&o.SamplerType), prefix+"sampler-type", string(o.SamplerType), "Sampler type (always_on, always_off, ratio, parent_based).")
	fs.Float64Var(&o.SamplerRatio, prefix+"sampler-ratio", o.SamplerRatio, "Sampling ratio (0.0 to 1.0).")
	fs.DurationVar(&o.BatchTimeout, prefix+"batch-timeout", o.BatchTimeout, "Maximum delay before a batch is exported.")
	fs.DurationVar(&o.ExportTimeout, prefix+"export-timeout", o.ExportTimeout, "Maximum duration of one export.")
	fs.DurationVar(&o.ShutdownTimeout, prefix+"shutdown-timeout", o.ShutdownTimeout, "Maximum time to flush spans on shutdown.")
}

// Validate validates the tracing options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.SamplerType {
	case SamplerAlwaysOn, SamplerAlwaysOff, SamplerRatio, SamplerParentBased:
	default:
		errs = append(errs, fmt.Errorf("tracing.sampler-type %q is invalid", o.SamplerType))
	}
	if o.SamplerRatio < 0 || o.SamplerRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampler-ratio must be in [0, 1]"))
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing.shutdown-timeout must be positive"))
	}

	if !o.Enabled {
		return errs
	}
	switch o.ExporterType {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing.endpoint is required for exporter %s", o.ExporterType))
		}
	case ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter-type %q is invalid", o.ExporterType))
	}
	if o.BatchTimeout <= 0 || o.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing batch and export timeouts must be positive"))
	}
	return errs
}

// Complete fills in nil maps.
func (o *Options) Complete() error {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	return nil
}
