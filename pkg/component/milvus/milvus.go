// Package milvus wraps the Milvus / Zilliz Cloud SDK client for the campus
// knowledge and analytics collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/campus-rag/pkg/options/milvus"
)

// Field names shared by every campus collection.
const (
	FieldPK     = "pk"
	FieldVector = "vector"
	FieldText   = "text"
)

// HNSW build parameters.
const (
	hnswM              = 8
	hnswEfConstruction = 64
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client. A configured token is sent as the Zilliz
// Cloud API key; otherwise username/password authentication is used.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
		APIKey:   opts.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Options returns the options the client was created with.
func (c *Client) Options() *milvusopts.Options {
	return c.opts
}

// CollectionSchema defines the schema for a vector collection.
// Every collection has an auto-id int64 "pk", a float vector "vector" and a
// varchar "text"; MetaFields are appended after them.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
	TextMaxLen  int
	MetaFields  []MetaField
}

// MetaField defines a metadata field in the collection.
type MetaField struct {
	Name     string
	DataType entity.FieldType
	MaxLen   int // For VARCHAR type
}

// EnsureCollection creates the collection with an HNSW/COSINE index when it
// does not exist, then loads it.
func (c *Client) EnsureCollection(ctx context.Context, schema *CollectionSchema) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		if err := c.createCollection(ctx, schema); err != nil {
			return err
		}
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", schema.Name, err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection %s loading: %w", schema.Name, err)
	}
	return nil
}

func (c *Client) createCollection(ctx context.Context, schema *CollectionSchema) error {
	textMaxLen := schema.TextMaxLen
	if textMaxLen <= 0 {
		textMaxLen = 65535
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(true).
		WithField(entity.NewField().
			WithName(FieldPK).
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true)).
		WithField(entity.NewField().
			WithName(FieldText).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(textMaxLen))).
		WithField(entity.NewField().
			WithName(FieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)))

	for _, f := range schema.MetaFields {
		field := entity.NewField().
			WithName(f.Name).
			WithDataType(f.DataType)
		if f.DataType == entity.FieldTypeVarChar && f.MaxLen > 0 {
			field.WithMaxLength(int64(f.MaxLen))
		}
		collSchema.WithField(field)
	}

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", schema.Name, err)
	}

	idx := index.NewHNSWIndex(entity.COSINE, hnswM, hnswEfConstruction)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, FieldVector, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}
	return nil
}

// Row is one entity to insert: its text, its embedding and scalar metadata.
// Metadata values must be string or int64, and every row of one Insert call
// must carry the same keys.
type Row struct {
	Text     string
	Vector   []float32
	Metadata map[string]any
}

// Insert inserts rows in a single call and flushes so they are immediately
// searchable. It returns the generated primary keys.
func (c *Client) Insert(ctx context.Context, collectionName string, rows []Row) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	columns, err := buildColumns(rows)
	if err != nil {
		return nil, err
	}

	result, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collectionName, columns...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return nil, fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for flush: %w", err)
	}

	if ids, ok := result.IDs.(*column.ColumnInt64); ok {
		return ids.Data(), nil
	}
	return nil, nil
}

// buildColumns converts rows into column-based insert data.
func buildColumns(rows []Row) ([]column.Column, error) {
	dim := len(rows[0].Vector)
	texts := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	for i, r := range rows {
		if len(r.Vector) != dim {
			return nil, fmt.Errorf("row %d has dimension %d, want %d", i, len(r.Vector), dim)
		}
		texts[i] = r.Text
		vectors[i] = r.Vector
	}

	columns := []column.Column{
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnFloatVector(FieldVector, dim, vectors),
	}

	for name, first := range rows[0].Metadata {
		switch first.(type) {
		case string:
			vals := make([]string, len(rows))
			for i, r := range rows {
				v, ok := r.Metadata[name].(string)
				if !ok {
					return nil, fmt.Errorf("row %d: field %s must be a string", i, name)
				}
				vals[i] = v
			}
			columns = append(columns, column.NewColumnVarChar(name, vals))
		case int64:
			vals := make([]int64, len(rows))
			for i, r := range rows {
				v, ok := r.Metadata[name].(int64)
				if !ok {
					return nil, fmt.Errorf("row %d: field %s must be an int64", i, name)
				}
				vals[i] = v
			}
			columns = append(columns, column.NewColumnInt64(name, vals))
		default:
			return nil, fmt.Errorf("unsupported metadata type: %T for field %s", first, name)
		}
	}
	return columns, nil
}

// SearchResult represents a single search hit.
type SearchResult struct {
	ID       int64
	Score    float32
	Metadata map[string]any
}

// SearchRequest describes a similarity search.
type SearchRequest struct {
	Collection   string
	Vector       []float32
	TopK         int
	OutputFields []string
	// Radius turns the search into a range search: only hits with COSINE
	// similarity above Radius are returned. Zero disables it.
	Radius float64
}

// Search performs an HNSW similarity search.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	annParam := index.NewHNSWAnnParam(c.searchEf(req.TopK))
	if req.Radius > 0 {
		annParam.WithRadius(req.Radius)
	}

	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		req.Collection,
		req.TopK,
		[]entity.Vector{entity.FloatVector(req.Vector)},
	).WithANNSField(FieldVector).
		WithAnnParam(annParam).
		WithOutputFields(req.OutputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	hits := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hit := SearchResult{
			Score:    rs.Scores[i],
			Metadata: make(map[string]any, len(rs.Fields)),
		}
		if idCol, ok := rs.IDs.(*column.ColumnInt64); ok {
			hit.ID = idCol.Data()[i]
		}
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				hit.Metadata[col.Name()] = col.Data()[i]
			case *column.ColumnInt64:
				hit.Metadata[col.Name()] = col.Data()[i]
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// searchEf keeps ef >= topK, which HNSW requires.
func (c *Client) searchEf(topK int) int {
	ef := c.opts.SearchEf
	if ef < topK {
		ef = topK
	}
	return ef
}

// DeleteByExpr deletes the entities matching a boolean expression and returns
// how many were deleted.
func (c *Client) DeleteByExpr(ctx context.Context, collectionName, expr string) (int64, error) {
	result, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(collectionName).WithExpr(expr))
	if err != nil {
		return 0, fmt.Errorf("failed to delete by expr: %w", err)
	}
	return result.DeleteCount, nil
}

// GetCollectionStats returns the number of entities in a collection.
func (c *Client) GetCollectionStats(ctx context.Context, collectionName string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

// QuoteString renders s as a double-quoted milvus expression literal.
func QuoteString(s string) string {
	return strconv.Quote(s)
}
