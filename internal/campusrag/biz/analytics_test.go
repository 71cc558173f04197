package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

func TestBucketByHour(t *testing.T) {
	base := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	got := BucketByHour([]time.Time{
		base.Add(2*time.Hour + 5*time.Minute),
		base.Add(59 * time.Minute),
		base,
		base.Add(2*time.Hour + 30*time.Minute),
		base.Add(2 * time.Hour).In(time.FixedZone("CST", 8*3600)),
	})

	assert.Equal(t, &AnalyticsResult{
		Frequency: 5,
		Result: []HourCount{
			{Datetime: "2025-03-01T14:00:00Z", Frequency: 2},
			{Datetime: "2025-03-01T16:00:00Z", Frequency: 3},
		},
	}, got)
}

func TestBucketByHour_Empty(t *testing.T) {
	b, err := json.Marshal(BucketByHour(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":0,"result":[]}`, string(b))
}

func TestAnalytics_Search(t *testing.T) {
	searcher := &fakeSearcher{timestamps: []time.Time{time.Unix(3600, 0)}}
	a := NewAnalytics(&fakeEmbedder{}, searcher)

	got, err := a.Search(context.Background(), "parking", 50, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Frequency)
	assert.Equal(t, "1970-01-01T01:00:00Z", got.Result[0].Datetime)
	assert.Equal(t, 0.5, searcher.radius)
	assert.Equal(t, 50, searcher.limit)

	searcher.timestamps = nil
	got, err = a.Search(context.Background(), "parking", 50, 0.5)
	require.NoError(t, err)
	assert.Equal(t, &AnalyticsResult{Result: []HourCount{}}, got)
}

func TestValidateSearchParams(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limit  int
		radius float64
		want   *errors.Errno
	}{
		{name: "默认参数", query: "q", limit: DefaultSearchLimit, radius: DefaultSearchRadius},
		{name: "边界", query: "q", limit: MaxSearchLimit, radius: 1},
		{name: "空查询", query: "", limit: 1, radius: 0.5, want: errors.ErrInvalidQuery},
		{name: "limit 为 0", query: "q", limit: 0, radius: 0.5, want: errors.ErrInvalidParam},
		{name: "limit 过大", query: "q", limit: MaxSearchLimit + 1, radius: 0.5, want: errors.ErrInvalidParam},
		{name: "radius 为 0", query: "q", limit: 1, radius: 0, want: errors.ErrInvalidParam},
		{name: "radius 大于 1", query: "q", limit: 1, radius: 1.1, want: errors.ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchParams(tt.query, tt.limit, tt.radius)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
