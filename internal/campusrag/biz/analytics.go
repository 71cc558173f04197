package biz

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// 查询分析参数的默认值与范围。
const (
	DefaultSearchLimit  = 100
	MaxSearchLimit      = 1000
	DefaultSearchRadius = 0.8

	hourLayout = "2006-01-02T15:00:00Z"
)

// HourCount 是一个小时桶内的查询数。
type HourCount struct {
	Datetime  string `json:"datetime"`
	Frequency int    `json:"frequency"`
}

// AnalyticsResult 是按小时聚合的查询频次。
type AnalyticsResult struct {
	Frequency int         `json:"frequency"`
	Result    []HourCount `json:"result"`
}

// Analytics 检索与某个问题相似的历史查询并按小时聚合。
type Analytics struct {
	embedder llm.Embedder
	searcher store.AnalyticsSearcher
}

// NewAnalytics 创建查询分析服务。
func NewAnalytics(embedder llm.Embedder, searcher store.AnalyticsSearcher) *Analytics {
	return &Analytics{embedder: embedder, searcher: searcher}
}

// Search 检索相似度高于 radius 的至多 limit 条历史查询。
func (a *Analytics) Search(ctx context.Context, query string, limit int, radius float64) (*AnalyticsResult, error) {
	if err := ValidateSearchParams(query, limit, radius); err != nil {
		return nil, err
	}

	vector, err := a.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, errors.ErrAnalyticsFailed.WithCause(fmt.Errorf("embed query: %w", err))
	}

	timestamps, err := a.searcher.SearchTimestamps(ctx, vector, radius, limit)
	if err != nil {
		return nil, errors.ErrAnalyticsFailed.WithCause(err)
	}
	return BucketByHour(timestamps), nil
}

// ValidateSearchParams 校验查询分析参数。
func ValidateSearchParams(query string, limit int, radius float64) error {
	switch {
	case strings.TrimSpace(query) == "":
		return errors.ErrInvalidQuery
	case limit < 1 || limit > MaxSearchLimit:
		return errors.ErrInvalidParam.WithMessagef("limit must be in [1, %d]", MaxSearchLimit)
	case radius <= 0 || radius > 1:
		return errors.ErrInvalidParam.WithMessage("radius must be in (0, 1]")
	}
	return nil
}

// BucketByHour 将时间戳按 UTC 小时聚合，按时间升序返回。
func BucketByHour(timestamps []time.Time) *AnalyticsResult {
	counts := make(map[time.Time]int)
	for _, ts := range timestamps {
		counts[ts.UTC().Truncate(time.Hour)]++
	}

	hours := make([]time.Time, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	slices.SortFunc(hours, func(a, b time.Time) int { return a.Compare(b) })

	res := &AnalyticsResult{Result: make([]HourCount, 0, len(hours))}
	for _, h := range hours {
		res.Result = append(res.Result, HourCount{Datetime: h.Format(hourLayout), Frequency: counts[h]})
		res.Frequency += counts[h]
	}
	return res
}
