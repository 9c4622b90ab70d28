// Package pipeline sequences discovery, download, sanitization, extraction and
// persistence for every configured legislative period.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/plenar/internal/batch"
	"github.com/mfenderov/plenar/internal/discovery"
	"github.com/mfenderov/plenar/internal/events"
	"github.com/mfenderov/plenar/internal/extract"
	"github.com/mfenderov/plenar/internal/render"
	"github.com/mfenderov/plenar/internal/sanitize"
	"github.com/mfenderov/plenar/internal/storage"
	"github.com/mfenderov/plenar/pkg/models"
)

// Discoverer finds the protocol links of a period.
type Discoverer interface {
	Discover(ctx context.Context, p discovery.Period) (*models.PeriodLinkSet, error)
}

// Fetcher downloads documents.
type Fetcher interface {
	FetchMany(ctx context.Context, urls []string) ([]models.RawDocument, error)
}

// Config holds pipeline configuration.
type Config struct {
	Periods  []discovery.Period
	Markdown bool   // also render transcripts
	Bucket   string // reported on events when a mirror is attached
}

// PeriodResult summarizes the harvest of one period. Document-level failures
// are collected in Errors and do not fail the period.
type PeriodResult struct {
	Period   string
	Links    int
	Fetched  int
	Debates  int
	Duration time.Duration
	Errors   []error
}

// Pipeline orchestrates the harvest.
type Pipeline struct {
	config     Config
	discoverer Discoverer
	fetcher    Fetcher
	sanitizer  *sanitize.Sanitizer
	mapper     *extract.Mapper
	sink       storage.Sink
	events     chan<- events.PeriodHarvestedEvent // nil if nobody listens
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithSanitizer replaces the default declaration sanitizer.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(p *Pipeline) {
		p.sanitizer = s
	}
}

// WithEvents publishes a PeriodHarvestedEvent on ch after each successful period.
func WithEvents(ch chan<- events.PeriodHarvestedEvent) Option {
	return func(p *Pipeline) {
		p.events = ch
	}
}

// New creates a new Pipeline.
func New(config Config, d Discoverer, f Fetcher, m *extract.Mapper, sink storage.Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:     config,
		discoverer: d,
		fetcher:    f,
		sanitizer:  sanitize.New(sanitize.DefaultDeclarations...),
		mapper:     m,
		sink:       sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run harvests every configured period concurrently.
func (p *Pipeline) Run(ctx context.Context) ([]batch.Result[*PeriodResult], error) {
	units := make([]batch.Unit[discovery.Period], len(p.config.Periods))
	for i, period := range p.config.Periods {
		units[i] = batch.Unit[discovery.Period]{Label: period.ID, Input: period}
	}
	return batch.Run(ctx, units, p.RunPeriod)
}

// RunPeriod harvests a single period. It fails only when discovery fails or
// ctx ends.
func (p *Pipeline) RunPeriod(ctx context.Context, period discovery.Period) (*PeriodResult, error) {
	start := time.Now()
	log := slog.With("period", period.ID)
	result := &PeriodResult{Period: period.ID}

	links, err := p.discoverer.Discover(ctx, period)
	if err != nil {
		log.Error("discovery failed", "error", err)
		return nil, fmt.Errorf("discovery: %w", err)
	}
	result.Links = len(links.Links)
	log.Info("links discovered", "count", result.Links)

	docs, err := p.fetcher.FetchMany(ctx, links.Links)
	if err != nil {
		log.Warn("some documents could not be fetched", "error", err)
		result.Errors = append(result.Errors, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	result.Fetched = len(docs)

	sources := make([]extract.Source, 0, len(docs))
	for _, doc := range docs {
		name := storage.FileName(doc.SourceURL)
		content := p.sanitizer.Sanitize(doc.Content)
		if err := p.sink.PutXML(ctx, period.ID, name, content); err != nil {
			log.Warn("failed to store protocol", "file", name, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", name, err))
			continue
		}
		sources = append(sources, extract.Source{Name: name, Content: content})
	}

	extracted, err := p.mapper.ExtractAll(ctx, sources, period.ID)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	for _, r := range extracted {
		if !r.OK() {
			continue
		}
		if err := p.persist(ctx, period.ID, r.Label, r.Value); err != nil {
			log.Warn("failed to store debate", "file", r.Label, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", r.Label, err))
			continue
		}
		result.Debates++
	}

	result.Duration = time.Since(start)
	log.Info("period harvested", "links", result.Links, "fetched", result.Fetched,
		"debates", result.Debates, "errors", len(result.Errors), "duration", result.Duration)

	if p.events != nil {
		select {
		case p.events <- events.PeriodHarvestedEvent{
			Period:    period.ID,
			Links:     result.Links,
			Debates:   result.Debates,
			Bucket:    p.config.Bucket,
			Timestamp: time.Now(),
		}:
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	return result, nil
}

func (p *Pipeline) persist(ctx context.Context, period, name string, debate *models.Debate) error {
	if err := p.sink.PutDebate(ctx, period, name, debate); err != nil {
		return err
	}
	if !p.config.Markdown {
		return nil
	}
	md, err := render.Markdown(ctx, debate)
	if err != nil {
		return err
	}
	return p.sink.PutMarkdown(ctx, period, name, md)
}
