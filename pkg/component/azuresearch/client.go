// Package azuresearch is a thin REST client for an Azure AI Search index
// holding text chunks with a vector field.
package azuresearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kart-io/campus-rag/pkg/options/azure"
	"github.com/kart-io/campus-rag/pkg/utils/httpclient"
)

// Index field names.
const (
	FieldID            = "id"
	FieldContent       = "content"
	FieldContentVector = "content_vector"
	FieldMetadata      = "metadata"
)

const (
	actionUpload = "upload"
	actionDelete = "delete"
)

// Document is one index entry. Metadata is stored as a JSON string.
type Document struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	ContentVector []float32 `json:"content_vector,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
}

// IndexResult reports the outcome for a single key of an index batch.
type IndexResult struct {
	Key          string  `json:"key"`
	Succeeded    bool    `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

// SearchHit is a document returned by a search together with its score.
type SearchHit struct {
	Document
	Score float64 `json:"@search.score"`
}

// Client talks to a single index.
type Client struct {
	http *httpclient.Client
	opts *azure.SearchOptions
}

// New creates an index client.
func New(opts *azure.SearchOptions) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("azure search options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid azure search options: %w", errs[0])
	}
	return &Client{
		http: httpclient.NewClient(opts.Timeout, 0),
		opts: opts,
	}, nil
}

// Upload writes documents, replacing any existing entry with the same key.
func (c *Client) Upload(ctx context.Context, docs []Document) ([]IndexResult, error) {
	batch := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		entry := map[string]any{
			"@search.action":   actionUpload,
			FieldID:            d.ID,
			FieldContent:       d.Content,
			FieldContentVector: d.ContentVector,
			FieldMetadata:      d.Metadata,
		}
		batch = append(batch, entry)
	}
	return c.index(ctx, batch)
}

// Delete removes documents by key.
func (c *Client) Delete(ctx context.Context, keys []string) ([]IndexResult, error) {
	batch := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		batch = append(batch, map[string]any{"@search.action": actionDelete, FieldID: k})
	}
	return c.index(ctx, batch)
}

func (c *Client) index(ctx context.Context, batch []map[string]any) ([]IndexResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	var out struct {
		Value []IndexResult `json:"value"`
	}
	if err := c.http.PostJSON(ctx, c.url("docs/index"), c.headers(), map[string]any{"value": batch}, &out); err != nil {
		return nil, fmt.Errorf("azure search index batch: %w", err)
	}
	return out.Value, nil
}

// VectorSearch returns the k nearest documents to vector.
func (c *Client) VectorSearch(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	body := map[string]any{
		"select": strings.Join([]string{FieldID, FieldContent, FieldMetadata}, ","),
		"top":    k,
		"vectorQueries": []map[string]any{{
			"kind":   "vector",
			"vector": vector,
			"fields": FieldContentVector,
			"k":      k,
		}},
	}
	return c.search(ctx, body)
}

// ListIDs returns up to top document keys.
func (c *Client) ListIDs(ctx context.Context, top int) ([]string, error) {
	hits, err := c.search(ctx, map[string]any{
		"search": "*",
		"select": FieldID,
		"top":    top,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (c *Client) search(ctx context.Context, body map[string]any) ([]SearchHit, error) {
	var out struct {
		Value []SearchHit `json:"value"`
	}
	if err := c.http.PostJSON(ctx, c.url("docs/search"), c.headers(), body, &out); err != nil {
		return nil, fmt.Errorf("azure search query: %w", err)
	}
	return out.Value, nil
}

func (c *Client) url(op string) string {
	q := url.Values{}
	q.Set("api-version", c.opts.APIVersion)
	return fmt.Sprintf("%s/indexes/%s/%s?%s",
		strings.TrimRight(c.opts.Endpoint, "/"), url.PathEscape(c.opts.Index), op, q.Encode())
}

func (c *Client) headers() map[string]string {
	return map[string]string{"api-key": c.opts.APIKey}
}
