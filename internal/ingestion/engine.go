// Package ingestion loads extracted debates into the speech index.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/plenar/internal/storage"
	"github.com/mfenderov/plenar/pkg/models"
)

// Indexer stores speech documents.
type Indexer interface {
	CreateIndex(ctx context.Context) error
	IndexSpeeches(ctx context.Context, docs []models.SpeechDocument) (int, error)
	Refresh(ctx context.Context) error
}

// Embedder attaches a vector to a speech.
type Embedder interface {
	EmbedSpeech(ctx context.Context, doc *models.SpeechDocument) error
}

// Result holds ingestion execution results.
type Result struct {
	Period      string
	Debates     int
	DocsIndexed int
	Duration    time.Duration
	Errors      []string
}

// Engine reads debates from a storage source, flattens them into speech
// documents, optionally embeds them, and indexes them.
type Engine struct {
	source   storage.Source
	index    Indexer
	embedder Embedder // nil if embeddings disabled
}

// New creates a new ingestion engine. embedder may be nil.
func New(source storage.Source, index Indexer, embedder Embedder) *Engine {
	return &Engine{
		source:   source,
		index:    index,
		embedder: embedder,
	}
}

// Ingest indexes every debate stored for period.
func (e *Engine) Ingest(ctx context.Context, period string) (*Result, error) {
	start := time.Now()
	result := &Result{Period: period}

	slog.Info("starting ingestion", "period", period)

	if err := e.index.CreateIndex(ctx); err != nil {
		return nil, err
	}

	names, err := e.source.ListDebates(ctx, period)
	if err != nil {
		return nil, err
	}
	slog.Info("found debates to ingest", "period", period, "count", len(names))

	var docs []models.SpeechDocument
	for _, name := range names {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		debate, err := e.source.GetDebate(ctx, period, name)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Debates++

		speeches := models.NewSpeechDocuments(name, debate)
		if e.embedder != nil {
			for i := range speeches {
				if err := e.embedder.EmbedSpeech(ctx, &speeches[i]); err != nil {
					// BM25 still works without a vector.
					slog.Warn("failed to generate embedding", "file", name, "error", err)
				}
			}
		}
		docs = append(docs, speeches...)
	}

	if len(docs) > 0 {
		n, err := e.index.IndexSpeeches(ctx, docs)
		result.DocsIndexed = n
		if err != nil {
			slog.Error("failed to index speeches", "period", period, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("indexing: %v", err))
		}
	}

	if err := e.index.Refresh(ctx); err != nil {
		slog.Warn("failed to refresh index", "error", err)
	}

	result.Duration = time.Since(start)
	slog.Info("ingestion complete",
		"period", period,
		"debates", result.Debates,
		"docs_indexed", result.DocsIndexed,
		"duration", result.Duration,
		"errors", len(result.Errors))

	return result, nil
}
