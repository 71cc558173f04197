// Package milvusopts provides options for Milvus / Zilliz Cloud client configuration.
package milvusopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Milvus client configuration.
type Options struct {
	// Address is the Milvus server address or the Zilliz Cloud endpoint URI.
	Address string `json:"address" mapstructure:"address"`
	// Token is the Zilliz Cloud API key; takes precedence over Username/Password.
	Token string `json:"-" mapstructure:"token"`
	// Database is the database name to use.
	Database string `json:"database" mapstructure:"database"`
	// Username for authentication.
	Username string `json:"username" mapstructure:"username"`
	// Password for authentication.
	Password string `json:"-" mapstructure:"password"`
	// Timeout for connection and operations.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// KnowledgeCollection holds ingested document chunks.
	KnowledgeCollection string `json:"knowledge-collection" mapstructure:"knowledge-collection"`
	// AnalyticsCollection holds user query records.
	AnalyticsCollection string `json:"analytics-collection" mapstructure:"analytics-collection"`
	// Dimension of the embedding vectors (text-embedding-3-large = 3072).
	Dimension int `json:"dimension" mapstructure:"dimension"`
	// SearchEf is the HNSW ef parameter used at query time.
	SearchEf int `json:"search-ef" mapstructure:"search-ef"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Address:             "localhost:19530",
		Database:            "default",
		Timeout:             30 * time.Second,
		KnowledgeCollection: "innovation_campus",
		AnalyticsCollection: "user_queries",
		Dimension:           3072,
		SearchEf:            10,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, prefix+"address", o.Address, "Milvus server address or Zilliz Cloud URI.")
	fs.StringVar(&o.Token, prefix+"token", o.Token, "Zilliz Cloud API key.")
	fs.StringVar(&o.Database, prefix+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, prefix+"username", o.Username, "Milvus username for authentication.")
	fs.StringVar(&o.Password, prefix+"password", o.Password, "Milvus password for authentication.")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Connection and operation timeout.")
	fs.StringVar(&o.KnowledgeCollection, prefix+"knowledge-collection", o.KnowledgeCollection, "Collection holding ingested document chunks.")
	fs.StringVar(&o.AnalyticsCollection, prefix+"analytics-collection", o.AnalyticsCollection, "Collection holding user query records.")
	fs.IntVar(&o.Dimension, prefix+"dimension", o.Dimension, "Embedding vector dimension.")
	fs.IntVar(&o.SearchEf, prefix+"search-ef", o.SearchEf, "HNSW ef used at query time.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Address == "" {
		errs = append(errs, fmt.Errorf("milvus address is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus timeout must be positive"))
	}
	if o.KnowledgeCollection == "" || o.AnalyticsCollection == "" {
		errs = append(errs, fmt.Errorf("milvus knowledge and analytics collections are required"))
	}
	if o.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("milvus dimension must be positive"))
	}
	return errs
}
