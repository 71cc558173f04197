package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kart-io/logger"
	gocache "github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"

	cacheopts "github.com/kart-io/campus-rag/pkg/options/cache"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

// CachedEmbedder 为 Embedder 增加两级缓存：进程内存（go-cache）与可选的 Redis。
// 缓存键为 sha256(model + text)，模型切换后旧向量不会被命中。
type CachedEmbedder struct {
	embedder Embedder
	memory   *gocache.Cache
	redis    goredis.UniversalClient
	opts     *cacheopts.Options
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder 创建带缓存的 Embedder。redis 为 nil 时只使用内存层。
func NewCachedEmbedder(embedder Embedder, redis goredis.UniversalClient, opts *cacheopts.Options) *CachedEmbedder {
	if opts == nil {
		opts = cacheopts.NewOptions()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if !opts.UseRedis {
		redis = nil
	}
	return &CachedEmbedder{
		embedder: embedder,
		memory:   gocache.New(ttl, opts.CleanupInterval),
		redis:    redis,
		opts:     opts,
	}
}

// Model 返回底层向量模型名。
func (c *CachedEmbedder) Model() string {
	return c.embedder.Model()
}

// CacheKey 基于模型与文本生成缓存键。
func CacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + text))
	return hex.EncodeToString(hash[:])
}

// EmbedSingle 生成单个文本的向量（带缓存）。
func (c *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || vecs[0] == nil {
		return nil, fmt.Errorf("embedding not returned")
	}
	return vecs[0], nil
}

// Embed 批量生成向量。只有未命中的文本会请求底层供应商，且合并为一次调用。
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.opts.Enabled {
		return c.embedder.Embed(ctx, texts)
	}

	model := c.embedder.Model()
	result := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)

	for i, text := range texts {
		keys[i] = CacheKey(model, text)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			result[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		logger.Debugw("embedding cache hit", "count", len(texts))
		return result, nil
	}

	vecs, err := c.embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(missTexts), len(vecs))
	}

	for j, vec := range vecs {
		i := missIdx[j]
		result[i] = vec
		c.store(ctx, keys[i], vec)
	}

	logger.Debugw("embedding cache miss", "count", len(texts), "misses", len(missTexts))
	return result, nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v.([]float32), true
	}
	if c.redis == nil {
		return nil, false
	}

	redisKey := c.opts.KeyPrefix + key
	data, err := c.redis.Get(ctx, redisKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			// Redis 故障不影响功能，回退到供应商
			logger.Warnw("redis get error, falling back to provider", "error", err.Error())
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		logger.Warnw("failed to unmarshal cached embedding, deleting", "error", err.Error(), "key", redisKey)
		_ = c.redis.Del(ctx, redisKey).Err()
		return nil, false
	}
	c.memory.SetDefault(key, vec)
	return vec, true
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	c.memory.SetDefault(key, vec)
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(vec)
	if err != nil {
		logger.Warnw("failed to marshal embedding for caching", "error", err.Error())
		return
	}
	ttl := c.opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	if err := c.redis.Set(ctx, c.opts.KeyPrefix+key, data, ttl).Err(); err != nil {
		logger.Warnw("failed to cache embedding", "error", err.Error())
	}
}

// Flush 清空内存层，主要用于测试。
func (c *CachedEmbedder) Flush() {
	c.memory.Flush()
}

// ItemCount 返回内存层条目数。
func (c *CachedEmbedder) ItemCount() int {
	return c.memory.ItemCount()
}
