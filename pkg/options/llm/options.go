// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var (
	_ options.IOptions = (*OpenAIOptions)(nil)
	_ options.IOptions = (*AzureOpenAIOptions)(nil)
)

// OpenAIOptions 定义 OpenAI 配置（wsu 租户的 embedding、chat 与 whisper 转写）。
type OpenAIOptions struct {
	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api-key"`

	// ChatModel 对话模型。
	ChatModel string `json:"chat-model" mapstructure:"chat-model"`

	// EmbeddingModel 向量模型。
	EmbeddingModel string `json:"embedding-model" mapstructure:"embedding-model"`

	// TranscriptionModel 语音转写模型。
	TranscriptionModel string `json:"transcription-model" mapstructure:"transcription-model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，默认 0（失败即返回）。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// NewOpenAIOptions 创建默认 OpenAI 配置。
func NewOpenAIOptions() *OpenAIOptions {
	return &OpenAIOptions{
		BaseURL:            "https://api.openai.com/v1",
		ChatModel:          "gpt-4o-mini",
		EmbeddingModel:     "text-embedding-3-large",
		TranscriptionModel: "whisper-1",
		Timeout:            60 * time.Second,
	}
}

// AddFlags adds flags for OpenAI options to the specified FlagSet.
func (o *OpenAIOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "llm.openai."
	fs.StringVar(&o.BaseURL, prefix+"base-url", o.BaseURL, "OpenAI API base URL.")
	fs.StringVar(&o.APIKey, prefix+"api-key", o.APIKey, "OpenAI API key (prefer the OPENAI_API_KEY env var).")
	fs.StringVar(&o.ChatModel, prefix+"chat-model", o.ChatModel, "Chat completion model.")
	fs.StringVar(&o.EmbeddingModel, prefix+"embedding-model", o.EmbeddingModel, "Embedding model.")
	fs.StringVar(&o.TranscriptionModel, prefix+"transcription-model", o.TranscriptionModel, "Audio transcription model.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, prefix+"max-retries", o.MaxRetries, "Retries for transport errors and 5xx responses.")
	fs.StringVar(&o.Organization, prefix+"organization", o.Organization, "OpenAI organization ID (optional).")
}

// Complete reads the API key from OPENAI_API_KEY when unset.
func (o *OpenAIOptions) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}

// Validate validates the OpenAI options.
func (o *OpenAIOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("llm.openai.base-url is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.openai.api-key is required"))
	}
	if o.ChatModel == "" || o.EmbeddingModel == "" {
		errs = append(errs, fmt.Errorf("llm.openai chat and embedding models are required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.openai.timeout must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.openai.max-retries must not be negative"))
	}
	return errs
}

// AzureOpenAIOptions 定义 Azure OpenAI 配置（wichita 租户）。
// 请求地址为 {endpoint}/openai/deployments/{deployment}/...?api-version=。
type AzureOpenAIOptions struct {
	Endpoint            string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey              string        `json:"-" mapstructure:"api-key"`
	APIVersion          string        `json:"api-version" mapstructure:"api-version"`
	ChatDeployment      string        `json:"chat-deployment" mapstructure:"chat-deployment"`
	EmbeddingDeployment string        `json:"embedding-deployment" mapstructure:"embedding-deployment"`
	Timeout             time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries          int           `json:"max-retries" mapstructure:"max-retries"`
}

// NewAzureOpenAIOptions 创建默认 Azure OpenAI 配置。
func NewAzureOpenAIOptions() *AzureOpenAIOptions {
	return &AzureOpenAIOptions{
		APIVersion:          "2024-06-01",
		ChatDeployment:      "gpt-4o-mini",
		EmbeddingDeployment: "text-embedding-3-large",
		Timeout:             60 * time.Second,
	}
}

// AddFlags adds flags for Azure OpenAI options to the specified FlagSet.
func (o *AzureOpenAIOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "llm.azure."
	fs.StringVar(&o.Endpoint, prefix+"endpoint", o.Endpoint, "Azure OpenAI resource endpoint.")
	fs.StringVar(&o.APIKey, prefix+"api-key", o.APIKey, "Azure OpenAI API key (prefer the AZURE_OPENAI_API_KEY env var).")
	fs.StringVar(&o.APIVersion, prefix+"api-version", o.APIVersion, "Azure OpenAI API version.")
	fs.StringVar(&o.ChatDeployment, prefix+"chat-deployment", o.ChatDeployment, "Chat completion deployment name.")
	fs.StringVar(&o.EmbeddingDeployment, prefix+"embedding-deployment", o.EmbeddingDeployment, "Embedding deployment name.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, prefix+"max-retries", o.MaxRetries, "Retries for transport errors and 5xx responses.")
}

// Complete reads the API key from AZURE_OPENAI_API_KEY when unset.
func (o *AzureOpenAIOptions) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	return nil
}

// Validate validates the Azure OpenAI options.
func (o *AzureOpenAIOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("llm.azure.endpoint is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.azure.api-key is required"))
	}
	if o.APIVersion == "" {
		errs = append(errs, fmt.Errorf("llm.azure.api-version is required"))
	}
	if o.ChatDeployment == "" || o.EmbeddingDeployment == "" {
		errs = append(errs, fmt.Errorf("llm.azure chat and embedding deployments are required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.azure.timeout must be positive"))
	}
	return errs
}
