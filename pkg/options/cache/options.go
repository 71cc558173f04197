// Package cache provides embedding cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 向量缓存配置。
// 内存层始终启用；UseRedis 打开时追加 Redis 层，多实例共享缓存。
type Options struct {
	// Enabled 是否启用向量缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间，0 表示永不过期。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// CleanupInterval 内存层清理周期。
	CleanupInterval time.Duration `json:"cleanup-interval" mapstructure:"cleanup-interval"`

	// UseRedis 是否启用 Redis 层（需要 redis.enabled）。
	UseRedis bool `json:"use-redis" mapstructure:"use-redis"`

	// KeyPrefix Redis 键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Enabled:         true,
		TTL:             24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
		KeyPrefix:       "campus-rag:embedding:",
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, prefix+"enabled", o.Enabled, "Enable the embedding cache.")
	fs.DurationVar(&o.TTL, prefix+"ttl", o.TTL, "Embedding cache TTL (0 = no expiry).")
	fs.DurationVar(&o.CleanupInterval, prefix+"cleanup-interval", o.CleanupInterval, "In-memory cache cleanup interval.")
	fs.BoolVar(&o.UseRedis, prefix+"use-redis", o.UseRedis, "Add a redis tier to the embedding cache.")
	fs.StringVar(&o.KeyPrefix, prefix+"key-prefix", o.KeyPrefix, "Redis key prefix for cached embeddings.")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}
	var errs []error
	if o.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}
	if o.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cache.cleanup-interval must be positive"))
	}
	return errs
}
