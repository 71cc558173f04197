// Package llm 定义向量、对话与语音转写的统一抽象。
// 具体实现见 openai 子包（OpenAI 与 Azure OpenAI 两种接入方式）。
package llm

import "context"

// Embedder 定义 Embedding 供应商接口。
type Embedder interface {
	// Embed 为多个文本生成向量，结果顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Model 返回向量模型名，用于缓存键。
	Model() string
}

// ChatModel 定义对话补全接口。
type ChatModel interface {
	// Chat 进行单次补全，返回助手消息内容。
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error)
}

// Transcriber 定义语音转写接口。
type Transcriber interface {
	// Transcribe 转写音频。filename 用于推断音频格式。
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatOptions 单次调用参数。nil 字段使用供应商默认值。
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
}

// ChatOption 修改 ChatOptions。
type ChatOption func(*ChatOptions)

// WithTemperature 设置采样温度。0 是合法值，表示确定性输出。
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens 限制生成 token 数。
func WithMaxTokens(n int) ChatOption {
	return func(o *ChatOptions) {
		o.MaxTokens = n
	}
}

// ApplyChatOptions 合并调用参数。
func ApplyChatOptions(opts ...ChatOption) ChatOptions {
	var o ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// System 构造 system 消息。
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User 构造 user 消息。
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
