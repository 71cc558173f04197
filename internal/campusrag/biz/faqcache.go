package biz

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// faqEntry 是一次成功读取的结果，整体替换以保证列表与时间戳来自同一次读取。
type faqEntry struct {
	faqs      []string
	fetchedAt time.Time
}

// FAQCache 是带 TTL 的 FAQ 列表缓存。
// 过期窗口内的并发调用可能各自触发一次读取，后写入者覆盖先写入者。
type FAQCache struct {
	store store.FAQStore
	ttl   time.Duration
	clock clock.PassiveClock
	entry atomic.Pointer[faqEntry]
}

// NewFAQCache 创建 FAQ 缓存。
func NewFAQCache(faqs store.FAQStore, ttl time.Duration, clk clock.PassiveClock) *FAQCache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &FAQCache{store: faqs, ttl: ttl, clock: clk}
}

// Get 返回 FAQ 列表；无缓存或缓存超过 TTL 时重新读取。
func (c *FAQCache) Get(ctx context.Context) ([]string, error) {
	if e := c.entry.Load(); e != nil && c.clock.Since(e.fetchedAt) <= c.ttl {
		return slices.Clone(e.faqs), nil
	}

	faqs, err := c.store.FetchFAQs(ctx)
	if err != nil {
		return nil, errors.ErrFAQFetchFailed.WithCause(err)
	}

	c.entry.Store(&faqEntry{faqs: faqs, fetchedAt: c.clock.Now()})
	ctxlog.GetLogger(ctx).Debugw("faq cache refreshed", "count", len(faqs))
	return slices.Clone(faqs), nil
}

// Invalidate 清空缓存，下次 Get 会重新读取。
func (c *FAQCache) Invalidate() {
	c.entry.Store(nil)
}
