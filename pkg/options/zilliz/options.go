// Package zilliz provides Zilliz Cloud REST options.
package zilliz

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the Zilliz Cloud RESTful API used to read FAQs.
// Vector operations go through the milvus client instead.
type Options struct {
	// URL is the cluster endpoint, e.g. https://in03-xxxx.api.gcp-us-west1.zillizcloud.com.
	URL string `json:"url" mapstructure:"url"`
	// Token is the bearer token (API key or user:password).
	Token string `json:"-" mapstructure:"token"`
	// FAQCollection holds one entity per FAQ with an "faq" field.
	FAQCollection string `json:"faq-collection" mapstructure:"faq-collection"`
	// FAQLimit caps the entities read per FAQ fetch.
	FAQLimit int `json:"faq-limit" mapstructure:"faq-limit"`
	// Timeout bounds each REST call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewOptions creates default Zilliz options.
func NewOptions() *Options {
	return &Options{
		FAQCollection: "faq_collection",
		FAQLimit:      1000,
		Timeout:       30 * time.Second,
	}
}

// AddFlags adds flags for Zilliz options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "zilliz."
	fs.StringVar(&o.URL, prefix+"url", o.URL, "Zilliz Cloud cluster endpoint.")
	fs.StringVar(&o.Token, prefix+"token", o.Token, "Zilliz Cloud bearer token (prefer the ZILLIZ_AUTH_TOKEN env var).")
	fs.StringVar(&o.FAQCollection, prefix+"faq-collection", o.FAQCollection, "Collection holding FAQ entities.")
	fs.IntVar(&o.FAQLimit, prefix+"faq-limit", o.FAQLimit, "Maximum FAQ entities read per fetch.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout.")
}

// Complete reads the token from ZILLIZ_AUTH_TOKEN when unset.
func (o *Options) Complete() error {
	if o.Token == "" {
		o.Token = os.Getenv("ZILLIZ_AUTH_TOKEN")
	}
	return nil
}

// Validate validates the Zilliz options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.URL == "" {
		errs = append(errs, fmt.Errorf("zilliz.url is required"))
	}
	if o.Token == "" {
		errs = append(errs, fmt.Errorf("zilliz.token is required"))
	}
	if o.FAQCollection == "" {
		errs = append(errs, fmt.Errorf("zilliz.faq-collection is required"))
	}
	if o.FAQLimit <= 0 {
		errs = append(errs, fmt.Errorf("zilliz.faq-limit must be positive"))
	}
	return errs
}
