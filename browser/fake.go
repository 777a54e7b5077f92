package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeCall records one primitive invocation against the fake adapter.
type FakeCall struct {
	Method   string
	Selector string
	Value    string
}

// Fake is a scripted in-memory Adapter for tests. Selectors listed in
// Missing return ErrElementNotFound; everything else succeeds.
type Fake struct {
	mu      sync.Mutex
	calls   []FakeCall
	missing map[string]bool
	url     string
	closed  bool

	// PNG returned by Screenshot.
	ScreenshotData []byte
}

// NewFake creates a fake adapter with an initial page URL.
func NewFake(url string) *Fake {
	return &Fake{
		missing:        make(map[string]bool),
		url:            url,
		ScreenshotData: []byte("fake-png"),
	}
}

// SetMissing marks a selector as unresolvable.
func (f *Fake) SetMissing(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[selector] = true
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) record(method, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrSessionClosed
	}
	f.calls = append(f.calls, FakeCall{Method: method, Selector: selector, Value: value})
	if selector != "" && f.missing[selector] {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// Navigate loads the given URL.
func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := f.record("navigate", "", url); err != nil {
		return err
	}
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
	return nil
}

// Click clicks the element matched by the selector.
func (f *Fake) Click(ctx context.Context, selector string) error {
	return f.record("click", selector, "")
}

// Type replaces the value of the element matched by the selector.
func (f *Fake) Type(ctx context.Context, selector, value string) error {
	return f.record("type", selector, value)
}

// Select picks an option value in the element matched by the selector.
func (f *Fake) Select(ctx context.Context, selector, value string) error {
	return f.record("select", selector, value)
}

// Hover moves the pointer over the element matched by the selector.
func (f *Fake) Hover(ctx context.Context, selector string) error {
	return f.record("hover", selector, "")
}

// Scroll scrolls the page to the given coordinates.
func (f *Fake) Scroll(ctx context.Context, x, y int) error {
	return f.record("scroll", "", fmt.Sprintf("%d,%d", x, y))
}

// WaitFor blocks until the selector resolves or the timeout elapses.
func (f *Fake) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return f.record("wait_for", selector, "")
}

// Screenshot captures a PNG of the current viewport.
func (f *Fake) Screenshot(ctx context.Context) ([]byte, error) {
	if err := f.record("screenshot", "", ""); err != nil {
		return nil, err
	}
	return f.ScreenshotData, nil
}

// CurrentURL reports the active page URL.
func (f *Fake) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", ErrSessionClosed
	}
	return f.url, nil
}

// Close tears down the session.
func (f *Fake) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
