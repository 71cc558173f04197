package provider

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Builder 构造一个 Provider。
type Builder func(ctx context.Context) (Provider, error)

// Registry 保存启动时构造完成的全部 Provider，之后只读。
type Registry struct {
	providers map[string]Provider
	names     []string
}

// BuildAll 并发构造全部 Provider。任一失败时关闭已构造的并返回错误，
// 不会发布部分初始化的 Registry。
func BuildAll(ctx context.Context, builders ...Builder) (*Registry, error) {
	built := make([]Provider, len(builders))
	g, gctx := errgroup.WithContext(ctx)
	for i, build := range builders {
		g.Go(func() error {
			p, err := build(gctx)
			if err != nil {
				return err
			}
			built[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		closeAll(built)
		return nil, err
	}

	r := &Registry{providers: make(map[string]Provider, len(built))}
	for _, p := range built {
		if _, dup := r.providers[p.Name()]; dup {
			closeAll(built)
			return nil, fmt.Errorf("duplicate provider %q", p.Name())
		}
		r.providers[p.Name()] = p
		r.names = append(r.names, p.Name())
	}
	return r, nil
}

// Get 按租户名返回 Provider。
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// MustGet 按租户名返回 Provider，不存在时 panic。只在组装路由时使用。
func (r *Registry) MustGet(name string) Provider {
	p, ok := r.providers[name]
	if !ok {
		panic(fmt.Sprintf("provider %q is not registered", name))
	}
	return p
}

// Names 按构造顺序返回租户名。
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Close 并发关闭全部 Provider。
func (r *Registry) Close() error {
	ps := make([]Provider, 0, len(r.providers))
	for _, name := range r.names {
		ps = append(ps, r.providers[name])
	}
	return closeAll(ps)
}

func closeAll(ps []Provider) error {
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, p := range ps {
		if p == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Close(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("close provider %s: %w", p.Name(), err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return utilerrors.NewAggregate(errs)
}
