// Package mongodb provides MongoDB options.
package mongodb

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/campus-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

const redactedPassword = "[REDACTED]"

// Options defines configuration options for MongoDB (Cosmos DB for MongoDB
// on the Azure tenant). It holds the FAQ documents and the analytics records.
type Options struct {
	// URI takes precedence over Host/Port/Username/Password when set.
	URI      string `json:"-" mapstructure:"uri"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`

	FAQCollection       string `json:"faq-collection" mapstructure:"faq-collection"`
	AnalyticsCollection string `json:"analytics-collection" mapstructure:"analytics-collection"`
	// FAQLimit caps the documents read per FAQ fetch.
	FAQLimit int64 `json:"faq-limit" mapstructure:"faq-limit"`

	MaxPoolSize            uint64        `json:"max-pool-size" mapstructure:"max-pool-size"`
	MinPoolSize            uint64        `json:"min-pool-size" mapstructure:"min-pool-size"`
	ConnectTimeout         time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ServerSelectionTimeout time.Duration `json:"server-selection-timeout" mapstructure:"server-selection-timeout"`
	AuthSource             string        `json:"auth-source" mapstructure:"auth-source"`
}

// MarshalJSON implements json.Marshaler with credentials redacted.
func (o *Options) MarshalJSON() ([]byte, error) {
	type plain Options
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return redactedPassword
	}
	return json.Marshal(struct {
		*plain
		URI      string `json:"uri"`
		Password string `json:"password"`
	}{plain: (*plain)(o), URI: redact(o.URI), Password: redact(o.Password)})
}

// String returns a string representation with credentials redacted.
func (o *Options) String() string {
	return fmt.Sprintf("MongoDB{host=%s, port=%d, user=%s, database=%s}", o.Host, o.Port, o.Username, o.Database)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                   "127.0.0.1",
		Port:                   27017,
		Database:               "campus",
		FAQCollection:          "faq",
		AnalyticsCollection:    "user_queries",
		FAQLimit:               1000,
		MaxPoolSize:            100,
		MinPoolSize:            0,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 30 * time.Second,
		AuthSource:             "admin",
	}
}

// Complete reads credentials from MONGODB_URI / MONGODB_PASSWORD when unset.
func (o *Options) Complete() error {
	if o.URI == "" {
		o.URI = os.Getenv("MONGODB_URI")
	}
	if o.Password == "" {
		o.Password = os.Getenv("MONGODB_PASSWORD")
	}
	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.URI == "" && o.Host == "" {
		errs = append(errs, fmt.Errorf("mongodb.uri or mongodb.host is required"))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mongodb.database is required"))
	}
	if o.FAQCollection == "" || o.AnalyticsCollection == "" {
		errs = append(errs, fmt.Errorf("mongodb faq and analytics collections are required"))
	}
	if o.FAQLimit <= 0 {
		errs = append(errs, fmt.Errorf("mongodb.faq-limit must be positive"))
	}
	return errs
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "mongodb."
	fs.StringVar(&o.URI, prefix+"uri", o.URI, "MongoDB connection string (prefer the MONGODB_URI env var).")
	fs.StringVar(&o.Host, prefix+"host", o.Host, "MongoDB service host address.")
	fs.IntVar(&o.Port, prefix+"port", o.Port, "MongoDB service port.")
	fs.StringVar(&o.Username, prefix+"username", o.Username, "Username for access to mongodb service.")
	fs.StringVar(&o.Password, prefix+"password", o.Password, "Password for access to mongodb (prefer the MONGODB_PASSWORD env var).")
	fs.StringVar(&o.Database, prefix+"database", o.Database, "Database name holding the FAQ and analytics collections.")
	fs.StringVar(&o.FAQCollection, prefix+"faq-collection", o.FAQCollection, "Collection holding FAQ documents.")
	fs.StringVar(&o.AnalyticsCollection, prefix+"analytics-collection", o.AnalyticsCollection, "Collection receiving user query records.")
	fs.Int64Var(&o.FAQLimit, prefix+"faq-limit", o.FAQLimit, "Maximum FAQ documents read per fetch.")
	fs.Uint64Var(&o.MaxPoolSize, prefix+"max-pool-size", o.MaxPoolSize, "Maximum number of connections in the pool.")
	fs.Uint64Var(&o.MinPoolSize, prefix+"min-pool-size", o.MinPoolSize, "Minimum number of connections in the pool.")
	fs.DurationVar(&o.ConnectTimeout, prefix+"connect-timeout", o.ConnectTimeout, "Timeout for connection.")
	fs.DurationVar(&o.ServerSelectionTimeout, prefix+"server-selection-timeout", o.ServerSelectionTimeout, "Timeout for server selection.")
	fs.StringVar(&o.AuthSource, prefix+"auth-source", o.AuthSource, "MongoDB authentication source.")
}

// BuildURI returns o.URI, or a mongodb:// URI assembled from the host fields.
func BuildURI(o *Options) string {
	if o.URI != "" {
		return o.URI
	}

	u := url.URL{Scheme: "mongodb", Host: o.Host, Path: "/" + o.Database}
	if o.Port != 0 {
		u.Host = o.Host + ":" + strconv.Itoa(o.Port)
	}
	if o.Username != "" {
		if o.Password != "" {
			u.User = url.UserPassword(o.Username, o.Password)
		} else {
			u.User = url.User(o.Username)
		}
	}
	if o.AuthSource != "" && o.AuthSource != "admin" {
		u.RawQuery = url.Values{"authSource": {o.AuthSource}}.Encode()
	}
	return u.String()
}
