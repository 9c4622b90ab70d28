package discovery

import "context"

// Session is the slice of a browser tab the crawler needs. Every call takes
// a CSS selector and resolves it afresh against the live DOM.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// Count returns how many elements currently match selector. It never waits.
	Count(ctx context.Context, selector string) (int, error)

	// OuterHTML returns the markup of the first element matching selector.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Click activates the first element matching selector.
	Click(ctx context.Context, selector string) error

	// WaitFor blocks until an element matching selector is present or ctx ends.
	WaitFor(ctx context.Context, selector string) error

	// Attributes returns the attributes of the first element matching selector.
	Attributes(ctx context.Context, selector string) (map[string]string, error)

	// Close releases the tab and its browser.
	Close() error
}

// SessionFactory opens a new isolated session.
type SessionFactory func(ctx context.Context) (Session, error)
