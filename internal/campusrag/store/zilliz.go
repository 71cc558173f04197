package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/campus-rag/pkg/options/zilliz"
	"github.com/kart-io/campus-rag/pkg/utils/httpclient"
)

const zillizQueryPath = "/v2/vectordb/entities/query"

// ZillizFAQStore 通过 Zilliz Cloud RESTful API 读取 FAQ 集合。
type ZillizFAQStore struct {
	http *httpclient.Client
	opts *zilliz.Options
}

// NewZillizFAQStore 创建 FAQ 存储。
func NewZillizFAQStore(opts *zilliz.Options) *ZillizFAQStore {
	return &ZillizFAQStore{
		http: httpclient.NewClient(opts.Timeout, 0),
		opts: opts,
	}
}

type zillizQueryRequest struct {
	CollectionName string   `json:"collectionName"`
	OutputFields   []string `json:"outputFields"`
	Limit          int      `json:"limit,omitempty"`
}

type zillizQueryResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    []struct {
		FAQ string `json:"faq"`
	} `json:"data"`
}

// FetchFAQs 查询 FAQ 集合的 faq 字段，空值被跳过。
func (s *ZillizFAQStore) FetchFAQs(ctx context.Context) ([]string, error) {
	req := zillizQueryRequest{
		CollectionName: s.opts.FAQCollection,
		OutputFields:   []string{"faq"},
		Limit:          s.opts.FAQLimit,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + s.opts.Token,
		"Accept":        "application/json",
	}

	var resp zillizQueryResponse
	url := strings.TrimRight(s.opts.URL, "/") + zillizQueryPath
	if err := s.http.PostJSON(ctx, url, headers, req, &resp); err != nil {
		return nil, fmt.Errorf("zilliz faq query: %w", err)
	}
	// RESTful API 以 HTTP 200 返回业务错误
	if resp.Code != 0 {
		return nil, fmt.Errorf("zilliz faq query: code %d: %s", resp.Code, resp.Message)
	}

	faqs := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if faq := strings.TrimSpace(d.FAQ); faq != "" {
			faqs = append(faqs, faq)
		}
	}
	return faqs, nil
}

var _ FAQStore = (*ZillizFAQStore)(nil)
