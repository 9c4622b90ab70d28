package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// chromeSession drives one headless Chrome instance through chromedp.
type chromeSession struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// ChromeSessions returns a factory that starts a dedicated browser per session.
func ChromeSessions(cfg Config) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
		)
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}))

		// Run without actions starts the browser.
		if err := chromedp.Run(tab); err != nil {
			cancelTab()
			cancelAlloc()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}

		return &chromeSession{tab: tab, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
	}
}

// run executes actions on the tab, stopping early when ctx ends.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) Count(ctx context.Context, selector string) (int, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (s *chromeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) Attributes(ctx context.Context, selector string) (map[string]string, error) {
	var attrs map[string]string
	if err := s.run(ctx, chromedp.Attributes(selector, &attrs, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (s *chromeSession) Close() error {
	defer s.cancelAlloc()
	defer s.cancelTab()
	return chromedp.Cancel(s.tab)
}
