// Package rag provides retrieval, ingestion and translation pipeline options.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// DefaultSystemPrompt is the system turn of the retrieval chain.
const DefaultSystemPrompt = "Please answer the question below in up to 5 sentences (not including any extra links), or give information, following these rules:\n" +
	"1. Only use information explicitly contained in the context.\n" +
	"2. If the context contains relevant links (for images, videos, or external pages) that relate to any topic, include them exactly as provided.\n" +
	"3. Include image, video, and external links related to the question, even if not explicitly requested. Prioritize image and video links.\n" +
	"4. Do not fabricate or guess any links that are not in the context.\n" +
	"5. If there isn't enough detail, respond with: \"I do not have enough information from the provided context.\""

// Options contains pipeline configuration shared by both tenants.
type Options struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`
	// ChunkOverlap is the overlap between adjacent chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`
	// TopK is the number of passages retrieved per question.
	TopK int `json:"top-k" mapstructure:"top-k"`
	// Temperature of the completion model; 0 keeps answers reproducible.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	// SystemPrompt is the system turn of the retrieval chain.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`

	// FAQTTL bounds the age of the cached FAQ list.
	FAQTTL time.Duration `json:"faq-ttl" mapstructure:"faq-ttl"`
	// TranslateConcurrency caps concurrent translation calls per request.
	TranslateConcurrency int `json:"translate-concurrency" mapstructure:"translate-concurrency"`
	// MaxAudioSize is the largest accepted transcription payload in bytes.
	MaxAudioSize int64 `json:"max-audio-size" mapstructure:"max-audio-size"`

	// IngestWorkers bounds concurrent vector store upserts.
	IngestWorkers int `json:"ingest-workers" mapstructure:"ingest-workers"`
	// AnalyticsWorkers bounds concurrent fire-and-forget analytics writes.
	AnalyticsWorkers int `json:"analytics-workers" mapstructure:"analytics-workers"`
	// FetchTimeout bounds fetching a URL for ingestion.
	FetchTimeout time.Duration `json:"fetch-timeout" mapstructure:"fetch-timeout"`

	// OfficeLicenseKey is the unioffice metered API key. When empty, DOCX
	// text is read from word/document.xml directly.
	OfficeLicenseKey string `json:"office-license-key" mapstructure:"office-license-key"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:            4000,
		ChunkOverlap:         400,
		TopK:                 10,
		Temperature:          0,
		SystemPrompt:         DefaultSystemPrompt,
		FAQTTL:               300 * time.Second,
		TranslateConcurrency: 8,
		MaxAudioSize:         2 << 20,
		IngestWorkers:        16,
		AnalyticsWorkers:     64,
		FetchTimeout:         30 * time.Second,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "rag."
	fs.IntVar(&o.ChunkSize, prefix+"chunk-size", o.ChunkSize, "Maximum chunk size in characters.")
	fs.IntVar(&o.ChunkOverlap, prefix+"chunk-overlap", o.ChunkOverlap, "Overlap between adjacent chunks.")
	fs.IntVar(&o.TopK, prefix+"top-k", o.TopK, "Number of passages retrieved per question.")
	fs.Float64Var(&o.Temperature, prefix+"temperature", o.Temperature, "Completion temperature.")
	fs.StringVar(&o.SystemPrompt, prefix+"system-prompt", o.SystemPrompt, "System prompt of the retrieval chain.")
	fs.DurationVar(&o.FAQTTL, prefix+"faq-ttl", o.FAQTTL, "Maximum age of the cached FAQ list.")
	fs.IntVar(&o.TranslateConcurrency, prefix+"translate-concurrency", o.TranslateConcurrency, "Maximum concurrent translation calls per request.")
	fs.Int64Var(&o.MaxAudioSize, prefix+"max-audio-size", o.MaxAudioSize, "Maximum transcription payload in bytes.")
	fs.IntVar(&o.IngestWorkers, prefix+"ingest-workers", o.IngestWorkers, "Maximum concurrent vector store upserts.")
	fs.IntVar(&o.AnalyticsWorkers, prefix+"analytics-workers", o.AnalyticsWorkers, "Maximum concurrent analytics writes.")
	fs.DurationVar(&o.FetchTimeout, prefix+"fetch-timeout", o.FetchTimeout, "Timeout for fetching a URL to ingest.")
	fs.StringVar(&o.OfficeLicenseKey, prefix+"office-license-key", o.OfficeLicenseKey, "unioffice metered API key used for DOCX extraction.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("rag.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("rag.chunk-overlap must be in [0, chunk-size)"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("rag.top-k must be positive"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("rag.temperature must be in [0, 2]"))
	}
	if o.FAQTTL <= 0 {
		errs = append(errs, fmt.Errorf("rag.faq-ttl must be positive"))
	}
	if o.TranslateConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("rag.translate-concurrency must be positive"))
	}
	if o.MaxAudioSize <= 0 {
		errs = append(errs, fmt.Errorf("rag.max-audio-size must be positive"))
	}
	if o.IngestWorkers <= 0 || o.AnalyticsWorkers <= 0 {
		errs = append(errs, fmt.Errorf("rag worker pool sizes must be positive"))
	}
	return errs
}

// Complete fills in the system prompt when it was cleared by configuration.
func (o *Options) Complete() error {
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return nil
}
