package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/mfenderov/plenar/pkg/models"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
	Dims      int // embedding dimensions, 0 for the default

	// FlushBytes is the bulk request size threshold, 0 for the esutil default.
	FlushBytes int
}

// Client wraps the Elasticsearch client with speech index operations.
type Client struct {
	es         *elasticsearch.Client
	index      string
	dims       int
	flushBytes int
}

// New creates a new Elasticsearch client.
func New(config Config) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	dims := config.Dims
	if dims == 0 {
		dims = 2560
	}

	return &Client{
		es:         es,
		index:      config.Index,
		dims:       dims,
		flushBytes: config.FlushBytes,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping returns the mapping for speech documents. Speech text is
// analyzed as German; speaker names are searchable and aggregatable.
func indexMapping(dims int) string {
	return fmt.Sprintf(`{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"period": { "type": "keyword" },
			"file": { "type": "keyword" },
			"date": { "type": "date", "format": "dd.MM.yyyy" },
			"sitting_number": { "type": "integer" },
			"speech_id": { "type": "keyword" },
			"forename": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"surname": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"party": { "type": "keyword" },
			"role": { "type": "keyword" },
			"text": { "type": "text", "analyzer": "german" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	}
}`, dims)
}

// CreateIndex creates the index with proper mapping.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping(c.dims)))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// IndexSpeeches indexes docs through the bulk API and returns how many were
// accepted. The error joins every rejected item.
func (c *Client) IndexSpeeches(ctx context.Context, docs []models.SpeechDocument) (int, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.es,
		Index:      c.index,
		FlushBytes: c.flushBytes,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			record(fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil {
					err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				record(fmt.Errorf("%s: %w", item.DocumentID, err))
			},
		})
		if err != nil {
			record(fmt.Errorf("%s: %w", doc.ID, err))
		}
	}

	if err := bi.Close(ctx); err != nil {
		record(err)
	}

	stats := bi.Stats()
	slog.Debug("bulk index complete", "index", c.index, "indexed", stats.NumIndexed, "failed", stats.NumFailed)

	mu.Lock()
	defer mu.Unlock()
	return int(stats.NumIndexed), errors.Join(errs...)
}

// Refresh forces an index refresh (useful for testing).
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Filter narrows a search to a period and/or party. Empty fields match all.
type Filter struct {
	Period string
	Party  string
}

func (f Filter) clauses() []map[string]any {
	var clauses []map[string]any
	if f.Period != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"period": f.Period}})
	}
	if f.Party != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"party": f.Party}})
	}
	return clauses
}

// textQuery matches speech text and speaker names.
func textQuery(query string, filter Filter) map[string]any {
	match := map[string]any{
		"multi_match": map[string]any{
			"query":  query,
			"fields": []string{"text", "surname^2", "forename"},
		},
	}
	clauses := filter.clauses()
	if len(clauses) == 0 {
		return match
	}
	return map[string]any{
		"bool": map[string]any{
			"must":   match,
			"filter": clauses,
		},
	}
}

func searchBody(query string, filter Filter, limit int) map[string]any {
	return map[string]any{
		"query": textQuery(query, filter),
		"size":  limit,
	}
}

func hybridBody(query string, queryEmbedding []float32, filter Filter, limit int) map[string]any {
	knn := map[string]any{
		"field":          "embedding",
		"query_vector":   queryEmbedding,
		"k":              limit,
		"num_candidates": limit * 2,
	}
	if clauses := filter.clauses(); len(clauses) > 0 {
		knn["filter"] = clauses
	}

	// Reciprocal rank fusion combines BM25 and vector results.
	return map[string]any{
		"retriever": map[string]any{
			"rrf": map[string]any{
				"retrievers": []map[string]any{
					{"standard": map[string]any{"query": textQuery(query, filter)}},
					{"knn": knn},
				},
			},
		},
		"size": limit,
	}
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.SpeechDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search performs a BM25 search over speech text and speaker names.
func (c *Client) Search(ctx context.Context, query string, filter Filter, limit int) ([]models.SpeechDocument, error) {
	return c.search(ctx, searchBody(query, filter, limit))
}

// HybridSearch performs a combined BM25 + vector search.
// If queryEmbedding is nil, falls back to BM25 only.
func (c *Client) HybridSearch(ctx context.Context, query string, queryEmbedding []float32, filter Filter, limit int) ([]models.SpeechDocument, error) {
	if queryEmbedding == nil {
		return c.Search(ctx, query, filter, limit)
	}
	return c.search(ctx, hybridBody(query, queryEmbedding, filter, limit))
}

func (c *Client) search(ctx context.Context, body map[string]any) ([]models.SpeechDocument, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	docs := make([]models.SpeechDocument, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		docs[i] = hit.Source
	}

	return docs, nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool                  `json:"found"`
	Source models.SpeechDocument `json:"_source"`
}

// GetSpeech retrieves a speech by document ID. It returns nil when the
// speech does not exist.
func (c *Client) GetSpeech(ctx context.Context, id string) (*models.SpeechDocument, error) {
	res, err := c.es.Get(
		c.index,
		id,
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !gr.Found {
		return nil, nil
	}

	return &gr.Source, nil
}
