// Package discovery finds protocol download links behind the portal's
// paginated carousel, one browser session per legislative period.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mfenderov/plenar/internal/batch"
	"github.com/mfenderov/plenar/pkg/models"
)

var (
	// ErrSession is returned when a browser session cannot be opened.
	ErrSession = errors.New("browser session failed")

	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New("invalid discovery configuration")
)

// Config holds crawler configuration.
type Config struct {
	BaseURL      string
	LinkSelector string
	NextSelector string
	SettleDelay  time.Duration // pause after clicking "next"
	NextTimeout  time.Duration // upper bound for the "next" control to reappear
	MaxPages     int           // stop paging after this many pages
	Headless     bool
	UserAgent    string
}

// Period pairs a legislative period with the DOM container listing its protocols.
type Period struct {
	ID        string
	Container string // CSS selector, e.g. "#bt-collapse-866354"
}

// Crawler discovers protocol links.
type Crawler struct {
	config     Config
	base       *url.URL
	newSession SessionFactory
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithSessionFactory replaces the Chrome session factory.
func WithSessionFactory(f SessionFactory) Option {
	return func(c *Crawler) {
		c.newSession = f
	}
}

// New creates a new Crawler with the given configuration.
func New(config Config, opts ...Option) (*Crawler, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if config.LinkSelector == "" || config.NextSelector == "" {
		return nil, fmt.Errorf("%w: link and next selectors are required", ErrInvalidConfig)
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if config.NextTimeout == 0 {
		config.NextTimeout = 10 * time.Second
	}
	if config.MaxPages == 0 {
		config.MaxPages = 500
	}

	c := &Crawler{config: config, base: base}
	c.newSession = ChromeSessions(config)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// pageState is the pagination state of the carousel.
type pageState int

const (
	stateHasMore  pageState = iota // another page may follow
	stateTerminal                  // "next" is disabled, harvest once more
	stateDone
)

func (s pageState) String() string {
	switch s {
	case stateHasMore:
		return "has_more"
	case stateTerminal:
		return "terminal"
	default:
		return "done"
	}
}

// Discover collects every download link of one period. A missing container
// yields an empty link set. The session is closed before returning.
func (c *Crawler) Discover(ctx context.Context, p Period) (*models.PeriodLinkSet, error) {
	log := slog.With("period", p.ID, "container", p.Container)

	session, err := c.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSession, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("closing browser session", "error", err)
		}
	}()

	if err := session.Navigate(ctx, c.config.BaseURL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.config.BaseURL, err)
	}

	n, err := session.Count(ctx, p.Container)
	if err != nil {
		return nil, fmt.Errorf("failed to locate container: %w", err)
	}
	if n == 0 {
		log.Warn("container not found, no links for period")
		return &models.PeriodLinkSet{Period: p.ID, Links: []string{}}, nil
	}

	links := make(linkSet)
	next := p.Container + " " + c.config.NextSelector
	state := stateHasMore

	for page := 1; state != stateDone; page++ {
		html, err := session.OuterHTML(ctx, p.Container)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", page, err)
		}
		found, err := harvestLinks(html, c.config.LinkSelector, c.base)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		added := links.add(found...)
		log.Debug("harvested page", "page", page, "links", len(found), "new", added, "state", state)

		state, err = c.advance(ctx, session, p.Container, next, state)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if state == stateHasMore && page >= c.config.MaxPages {
			log.Warn("page limit reached before pagination ended", "max_pages", c.config.MaxPages)
			state = stateDone
		}
	}

	result := &models.PeriodLinkSet{Period: p.ID, Links: links.sorted()}
	log.Info("discovered links", "count", len(result.Links))
	return result, nil
}

// advance moves the carousel one page forward and returns the next state.
func (c *Crawler) advance(ctx context.Context, s Session, container, next string, state pageState) (pageState, error) {
	if state == stateTerminal {
		return stateDone, nil
	}

	n, err := s.Count(ctx, next)
	if err != nil {
		return stateDone, fmt.Errorf("failed to locate next control: %w", err)
	}
	if n == 0 {
		return stateDone, nil
	}

	// A hidden control never becomes clickable.
	clickCtx, cancel := context.WithTimeout(ctx, c.config.NextTimeout)
	err = s.Click(clickCtx, next)
	cancel()
	if err != nil {
		return stateDone, fmt.Errorf("failed to click next control: %w", err)
	}
	if err := sleep(ctx, c.config.SettleDelay); err != nil {
		return stateDone, err
	}

	// The widget may have replaced the container node.
	n, err = s.Count(ctx, container)
	if err != nil {
		return stateDone, fmt.Errorf("failed to locate container: %w", err)
	}
	if n == 0 {
		slog.Warn("container vanished after paging", "container", container)
		return stateDone, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.config.NextTimeout)
	err = s.WaitFor(waitCtx, next)
	cancel()
	if err != nil {
		return stateDone, fmt.Errorf("next control did not reappear: %w", err)
	}

	attrs, err := s.Attributes(ctx, next)
	if err != nil {
		return stateDone, fmt.Errorf("failed to read next control: %w", err)
	}
	if isDisabled(attrs) {
		return stateTerminal, nil
	}
	return stateHasMore, nil
}

// DiscoverAll crawls every period concurrently, each in its own session.
// A failed period does not affect the others.
func (c *Crawler) DiscoverAll(ctx context.Context, periods []Period) ([]batch.Result[*models.PeriodLinkSet], error) {
	units := make([]batch.Unit[Period], len(periods))
	for i, p := range periods {
		units[i] = batch.Unit[Period]{Label: p.ID, Input: p}
	}
	return batch.Run(ctx, units, c.Discover)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
