package middleware

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

// RateLimitOptions 定义转写接口的按 IP 限流配置。
type RateLimitOptions struct {
	// Limit 是时间窗口内允许的最大请求数
	Limit int `json:"limit" mapstructure:"limit"`

	// Window 是限流时间窗口
	Window time.Duration `json:"window" mapstructure:"window"`

	// TrustedProxies 受信任代理（IP 或 CIDR）。为空时不信任 X-Forwarded-For / X-Real-IP
	TrustedProxies []string `json:"trusted-proxies" mapstructure:"trusted-proxies"`

	// UseRedis 使用 Redis 限流器（多实例共享计数），需要同时配置 redis
	UseRedis bool `json:"use-redis" mapstructure:"use-redis"`
}

// NewRateLimitOptions creates the default transcribe rate limit: 5 requests per 60s per IP.
func NewRateLimitOptions() *RateLimitOptions {
	return &RateLimitOptions{
		Limit:          5,
		Window:         60 * time.Second,
		TrustedProxies: []string{},
	}
}

// AddFlags adds flags for rate limit options to the specified FlagSet.
func (o *RateLimitOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "middleware.rate-limit."
	fs.IntVar(&o.Limit, prefix+"limit", o.Limit, "Maximum transcribe requests per client IP within the window.")
	fs.DurationVar(&o.Window, prefix+"window", o.Window, "Rate limit time window.")
	fs.StringSliceVar(&o.TrustedProxies, prefix+"trusted-proxies", o.TrustedProxies, "Trusted proxy IPs or CIDR ranges.")
	fs.BoolVar(&o.UseRedis, prefix+"use-redis", o.UseRedis, "Use Redis as the rate limiter backend.")
}

// Validate validates the rate limit options.
func (o *RateLimitOptions) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Limit <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if o.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	return errs
}
