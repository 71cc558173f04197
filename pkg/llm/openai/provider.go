// Package openai 实现 llm 包的 Embedder、ChatModel 与 Transcriber。
// 同一实现覆盖两种接入方式：
//
//   - OpenAI：{base_url}/embeddings、/chat/completions、/audio/transcriptions，Bearer 鉴权；
//   - Azure OpenAI：{endpoint}/openai/deployments/{deployment}/...?api-version=，api-key 头鉴权。
//
// 基本用法：
//
//	p, err := openai.New(llmopts.NewOpenAIOptions())
//	vec, err := p.EmbedSingle(ctx, "hello")
//	answer, err := p.Chat(ctx, []llm.Message{llm.User("hi")}, llm.WithTemperature(0))
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kart-io/campus-rag/pkg/llm"
	llmopts "github.com/kart-io/campus-rag/pkg/options/llm"
	"github.com/kart-io/campus-rag/pkg/utils/httpclient"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

// Provider 封装 OpenAI 兼容的 REST 接口。
type Provider struct {
	client *httpclient.Client

	// azure 为 true 时按部署名路由并使用 api-key 头
	azure      bool
	baseURL    string
	apiKey     string
	apiVersion string
	org        string

	chatModel       string
	embeddingModel  string
	transcribeModel string
	chatDeployment  string
	embedDeployment string
}

var (
	_ llm.Embedder    = (*Provider)(nil)
	_ llm.ChatModel   = (*Provider)(nil)
	_ llm.Transcriber = (*Provider)(nil)
)

// New 创建 OpenAI 供应商。
func New(opts *llmopts.OpenAIOptions) (*Provider, error) {
	if opts == nil {
		return nil, fmt.Errorf("openai options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid openai options: %w", errs[0])
	}
	return &Provider{
		client:          httpclient.NewClient(opts.Timeout, opts.MaxRetries),
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		org:             opts.Organization,
		chatModel:       opts.ChatModel,
		embeddingModel:  opts.EmbeddingModel,
		transcribeModel: opts.TranscriptionModel,
	}, nil
}

// NewAzure 创建 Azure OpenAI 供应商。Azure 模式不提供语音转写。
func NewAzure(opts *llmopts.AzureOpenAIOptions) (*Provider, error) {
	if opts == nil {
		return nil, fmt.Errorf("azure openai options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid azure openai options: %w", errs[0])
	}
	return &Provider{
		client:          httpclient.NewClient(opts.Timeout, opts.MaxRetries),
		azure:           true,
		baseURL:         strings.TrimRight(opts.Endpoint, "/"),
		apiKey:          opts.APIKey,
		apiVersion:      opts.APIVersion,
		chatModel:       opts.ChatDeployment,
		embeddingModel:  opts.EmbeddingDeployment,
		chatDeployment:  opts.ChatDeployment,
		embedDeployment: opts.EmbeddingDeployment,
	}, nil
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	if p.azure {
		return "azure-openai"
	}
	return "openai"
}

// Model 返回向量模型名。
func (p *Provider) Model() string {
	return p.embeddingModel
}

// endpoint 拼接接口地址。op 形如 "embeddings"、"chat/completions"。
func (p *Provider) endpoint(deployment, op string) string {
	if !p.azure {
		return p.baseURL + "/" + op
	}
	q := url.Values{}
	q.Set("api-version", p.apiVersion)
	return fmt.Sprintf("%s/openai/deployments/%s/%s?%s", p.baseURL, url.PathEscape(deployment), op, q.Encode())
}

// setHeaders 设置鉴权头。
func (p *Provider) setHeaders(req *http.Request) {
	if p.azure {
		req.Header.Set("api-key", p.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.org != "" {
		req.Header.Set("OpenAI-Organization", p.org)
	}
}

func (p *Provider) postJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.setHeaders(req)
	return p.client.DoJSON(req, out)
}

// embeddingRequest embedding API 请求体。
type embeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

// embeddingResponse embedding API 响应体。
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed 为多个文本生成向量嵌入。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{Input: texts}
	if !p.azure {
		reqBody.Model = p.embeddingModel
	}

	var resp embeddingResponse
	if err := p.postJSON(ctx, p.endpoint(p.embedDeployment, "embeddings"), reqBody, &resp); err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}

	// 按 index 归位确保顺序正确
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("embedding missing for input %d", i)
		}
	}
	return embeddings, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// chatRequest chat API 请求体。Temperature 为指针，0 会被显式发送。
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatResponse chat API 响应体。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Chat 进行单次补全。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.ChatOption) (string, error) {
	o := llm.ApplyChatOptions(opts...)
	reqBody := chatRequest{
		Messages:    messages,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
	}
	if !p.azure {
		reqBody.Model = p.chatModel
	}

	var resp chatResponse
	if err := p.postJSON(ctx, p.endpoint(p.chatDeployment, "chat/completions"), reqBody, &resp); err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("未返回响应内容")
	}
	return resp.Choices[0].Message.Content, nil
}
