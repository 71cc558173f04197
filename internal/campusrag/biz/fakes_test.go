package biz

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/llm"
)

// inlinePool 在调用方 goroutine 中直接执行任务。
type inlinePool struct{}

func (inlinePool) Submit(task func()) error { task(); return nil }

func (inlinePool) SubmitWait(ctx context.Context, task func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return task()
}

type fakeEmbedder struct {
	calls atomic.Int32
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding" }

type fakeChat struct {
	mu       sync.Mutex
	messages [][]llm.Message
	opts     []llm.ChatOptions
	reply    func(user string) (string, error)
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message, opts ...llm.ChatOption) (string, error) {
	f.mu.Lock()
	f.messages = append(f.messages, messages)
	f.opts = append(f.opts, llm.ApplyChatOptions(opts...))
	f.mu.Unlock()
	return f.reply(messages[len(messages)-1].Content)
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeKnowledge struct {
	mu        sync.Mutex
	passages  []store.Passage
	searchErr error
	upsertErr error
	upserts   [][]store.Chunk
}

func (f *fakeKnowledge) Upsert(_ context.Context, chunks []store.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, chunks)
	return nil
}

func (f *fakeKnowledge) Search(context.Context, []float32, int) ([]store.Passage, error) {
	return f.passages, f.searchErr
}

func (f *fakeKnowledge) Delete(context.Context, string) (store.DeletionReport, error) {
	return store.DeletionReport{}, nil
}

type fakeAnalytics struct {
	records chan store.QueryRecord
	ctxErrs chan error
	err     error
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{records: make(chan store.QueryRecord, 8), ctxErrs: make(chan error, 8)}
}

func (f *fakeAnalytics) Insert(ctx context.Context, rec store.QueryRecord) error {
	f.ctxErrs <- ctx.Err()
	f.records <- rec
	return f.err
}

type fakeFAQStore struct {
	calls atomic.Int32
	faqs  []string
	err   error
}

func (f *fakeFAQStore) FetchFAQs(context.Context) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.faqs...), nil
}

type fakeSearcher struct {
	timestamps []time.Time
	radius     float64
	limit      int
}

func (f *fakeSearcher) SearchTimestamps(_ context.Context, _ []float32, radius float64, limit int) ([]time.Time, error) {
	f.radius, f.limit = radius, limit
	return f.timestamps, nil
}

type fakeTranscriber struct {
	calls atomic.Int32
	text  string
	err   error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func upper(s string) (string, error) { return strings.ToUpper(s), nil }
