// Package azure provides Azure AI Search and Azure Speech options.
package azure

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var (
	_ options.IOptions = (*SearchOptions)(nil)
	_ options.IOptions = (*SpeechOptions)(nil)
)

// SearchOptions configures the Azure AI Search index used as the wichita
// knowledge store.
type SearchOptions struct {
	Endpoint   string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey     string        `json:"-" mapstructure:"api-key"`
	Index      string        `json:"index" mapstructure:"index"`
	APIVersion string        `json:"api-version" mapstructure:"api-version"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewSearchOptions creates default Azure AI Search options.
func NewSearchOptions() *SearchOptions {
	return &SearchOptions{
		Index:      "wichita-campus",
		APIVersion: "2024-07-01",
		Timeout:    30 * time.Second,
	}
}

// AddFlags adds flags for Azure AI Search options to the specified FlagSet.
func (o *SearchOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "azure.search."
	fs.StringVar(&o.Endpoint, prefix+"endpoint", o.Endpoint, "Azure AI Search service endpoint.")
	fs.StringVar(&o.APIKey, prefix+"api-key", o.APIKey, "Azure AI Search admin key (prefer the AZURE_SEARCH_API_KEY env var).")
	fs.StringVar(&o.Index, prefix+"index", o.Index, "Azure AI Search index name.")
	fs.StringVar(&o.APIVersion, prefix+"api-version", o.APIVersion, "Azure AI Search REST API version.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout.")
}

// Complete reads the API key from AZURE_SEARCH_API_KEY when unset.
func (o *SearchOptions) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("AZURE_SEARCH_API_KEY")
	}
	return nil
}

// Validate validates the Azure AI Search options.
func (o *SearchOptions) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("azure.search.endpoint is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("azure.search.api-key is required"))
	}
	if o.Index == "" {
		errs = append(errs, fmt.Errorf("azure.search.index is required"))
	}
	return errs
}

// SpeechOptions configures the Azure Speech short-audio REST API.
type SpeechOptions struct {
	// Endpoint is the recognition endpoint, e.g.
	// https://eastus.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1
	Endpoint string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string        `json:"-" mapstructure:"api-key"`
	Language string        `json:"language" mapstructure:"language"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewSpeechOptions creates default Azure Speech options.
func NewSpeechOptions() *SpeechOptions {
	return &SpeechOptions{
		Language: "en-US",
		Timeout:  30 * time.Second,
	}
}

// AddFlags adds flags for Azure Speech options to the specified FlagSet.
func (o *SpeechOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "azure.speech."
	fs.StringVar(&o.Endpoint, prefix+"endpoint", o.Endpoint, "Azure Speech recognition endpoint.")
	fs.StringVar(&o.APIKey, prefix+"api-key", o.APIKey, "Azure Speech subscription key (prefer the AZURE_SPEECH_API_KEY env var).")
	fs.StringVar(&o.Language, prefix+"language", o.Language, "Recognition language.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout.")
}

// Complete reads the API key from AZURE_SPEECH_API_KEY when unset.
func (o *SpeechOptions) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("AZURE_SPEECH_API_KEY")
	}
	return nil
}

// Validate validates the Azure Speech options.
func (o *SpeechOptions) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("azure.speech.endpoint is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("azure.speech.api-key is required"))
	}
	return errs
}
