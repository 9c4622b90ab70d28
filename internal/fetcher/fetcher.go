// Package fetcher downloads protocol documents with a colly collector.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mfenderov/plenar/pkg/models"
)

// ErrFetch marks a document that could not be downloaded.
var ErrFetch = errors.New("fetch failed")

// FetchError describes the failure of a single URL.
type FetchError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

// Config holds fetcher configuration.
type Config struct {
	Parallelism int
	Delay       time.Duration
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
}

// Fetcher downloads documents concurrently. It never retries.
type Fetcher struct {
	config Config
}

// New creates a new Fetcher with the given configuration.
func New(config Config) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "plenar/1.0"
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 8
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = 64 << 20
	}
	return &Fetcher{config: config}
}

// FetchMany downloads every URL. Successful documents are returned in input
// order; the error joins one *FetchError per failed URL.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string) ([]models.RawDocument, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.AllowURLRevisit(),
		colly.UserAgent(f.config.UserAgent),
		colly.MaxBodySize(f.config.MaxBodySize),
		colly.StdlibContext(ctx),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       f.config.Delay,
		Parallelism: f.config.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("failed to set fetch limits: %w", err)
	}
	c.SetRequestTimeout(f.config.Timeout)

	var (
		mu   sync.Mutex
		docs = make([]*models.RawDocument, len(urls))
		errs = make([]error, len(urls))
	)

	c.OnResponse(func(r *colly.Response) {
		i, ok := r.Ctx.GetAny("index").(int)
		if !ok {
			return
		}
		slog.Debug("fetched document", "url", urls[i], "status", r.StatusCode, "size", len(r.Body))

		mu.Lock()
		docs[i] = &models.RawDocument{SourceURL: urls[i], Content: string(r.Body)}
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		i, ok := r.Ctx.GetAny("index").(int)
		if !ok {
			return
		}
		slog.Debug("fetch failed", "url", urls[i], "status", r.StatusCode, "error", err)

		mu.Lock()
		errs[i] = &FetchError{URL: urls[i], Status: r.StatusCode, Err: err}
		mu.Unlock()
	})

	for i, u := range urls {
		rc := colly.NewContext()
		rc.Put("index", i)
		if err := c.Request("GET", u, nil, rc, nil); err != nil {
			mu.Lock()
			errs[i] = &FetchError{URL: u, Err: err}
			mu.Unlock()
		}
	}
	c.Wait()

	result := make([]models.RawDocument, 0, len(urls))
	var failed []error
	for i := range urls {
		switch {
		case errs[i] != nil:
			failed = append(failed, errs[i])
		case docs[i] != nil:
			result = append(result, *docs[i])
		default:
			failed = append(failed, &FetchError{URL: urls[i], Err: errors.New("no response")})
		}
	}

	if ctx.Err() != nil {
		failed = append(failed, ctx.Err())
	}

	slog.Info("fetch complete", "requested", len(urls), "fetched", len(result), "failed", len(failed))
	return result, errors.Join(failed...)
}
