package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type fakeServer struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
}

func (s *fakeServer) Name() string { return s.name }

func (s *fakeServer) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.rec.add("start:" + s.name)
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.rec.add("stop:" + s.name)
	return s.stopErr
}

func TestManagerStartStopOrder(t *testing.T) {
	rec := &recorder{}
	m := NewManager(time.Second, &fakeServer{name: "a", rec: rec})
	m.AddServer(&fakeServer{name: "b", rec: rec})

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()), "重复启动应返回错误")
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, rec.events)
	assert.NoError(t, m.Stop(context.Background()), "未启动时 Stop 为空操作")
}

func TestManagerStartFailureRollsBack(t *testing.T) {
	rec := &recorder{}
	m := NewManager(time.Second,
		&fakeServer{name: "a", rec: rec},
		&fakeServer{name: "b", rec: rec, startErr: errors.New("bind failed")},
	)

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"start:a", "stop:a"}, rec.events)
}

func TestManagerStopAggregatesErrors(t *testing.T) {
	rec := &recorder{}
	m := NewManager(time.Second,
		&fakeServer{name: "a", rec: rec, stopErr: errors.New("x")},
		&fakeServer{name: "b", rec: rec, stopErr: errors.New("y")},
	)
	require.NoError(t, m.Start(context.Background()))

	err := m.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestManagerRunStopsOnContextCancel(t *testing.T) {
	rec := &recorder{}
	m := NewManager(time.Second, &fakeServer{name: "a", rec: rec})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.events) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"start:a", "stop:a"}, rec.events)
}
