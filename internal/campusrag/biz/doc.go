// Package biz 实现 campus-rag 的业务流程：检索问答、文档入库、
// FAQ 缓存与翻译、语音转写以及查询分析。
//
// biz 只依赖 store 层接口与 llm 抽象，不关心具体后端；
// 两个租户的差异由 provider 包在组装时注入。
package biz

import (
	"context"

	"github.com/kart-io/campus-rag/pkg/infra/pool"
)

// Pool 是 biz 层使用的 worker 池。
type Pool interface {
	// Submit 异步执行任务。
	Submit(task func()) error
	// SubmitWait 在池中执行任务并等待结果。
	SubmitWait(ctx context.Context, task func() error) error
}

var _ Pool = (*pool.Pool)(nil)
