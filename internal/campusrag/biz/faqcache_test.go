package biz

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

func TestFAQCache_TTL(t *testing.T) {
	clk := clocktesting.NewFakePassiveClock(time.Unix(0, 0))
	fs := &fakeFAQStore{faqs: []string{"a", "b"}}
	cache := NewFAQCache(fs, 300*time.Second, clk)
	ctx := context.Background()

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	clk.SetTime(clk.Now().Add(299 * time.Second))
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fs.calls.Load())

	clk.SetTime(clk.Now().Add(2 * time.Second))
	fs.faqs = []string{"c"}
	got, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)
	assert.Equal(t, int32(2), fs.calls.Load())
}

func TestFAQCache_ReturnsCopy(t *testing.T) {
	fs := &fakeFAQStore{faqs: []string{"a"}}
	cache := NewFAQCache(fs, time.Minute, clocktesting.NewFakePassiveClock(time.Now()))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again)
}

func TestFAQCache_FetchError(t *testing.T) {
	clk := clocktesting.NewFakePassiveClock(time.Unix(0, 0))
	fs := &fakeFAQStore{faqs: []string{"a"}}
	cache := NewFAQCache(fs, time.Minute, clk)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	clk.SetTime(clk.Now().Add(2 * time.Minute))
	fs.err = stderrors.New("mongo down")
	_, err = cache.Get(context.Background())
	assert.ErrorIs(t, err, errors.ErrFAQFetchFailed)

	// 读取失败不会写入缓存
	fs.err = nil
	cache.Invalidate()
	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, int32(3), fs.calls.Load())
}

func TestFAQCache_Concurrent(t *testing.T) {
	fs := &fakeFAQStore{faqs: []string{"a", "b", "c"}}
	cache := NewFAQCache(fs, time.Nanosecond, nil)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, got)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, fs.calls.Load(), int32(1))
}
