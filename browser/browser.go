package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned when a selector resolves to no element.
	ErrElementNotFound = errors.New("element not found")

	// ErrSessionClosed is returned when a command is issued against a closed session.
	ErrSessionClosed = errors.New("browser session closed")
)

// Adapter drives a single browser session through its primitive commands.
// It owns no business logic; timeouts for individual primitives are the
// adapter's own and are never scaled by callers.
type Adapter interface {
	// Navigate loads the given URL in the session's active page.
	Navigate(ctx context.Context, url string) error

	// Click clicks the element matched by the CSS selector.
	Click(ctx context.Context, selector string) error

	// Type replaces the value of the element matched by the selector.
	Type(ctx context.Context, selector, value string) error

	// Select picks an option value in the element matched by the selector.
	Select(ctx context.Context, selector, value string) error

	// Hover moves the pointer over the element matched by the selector.
	Hover(ctx context.Context, selector string) error

	// Scroll scrolls the page to the given coordinates.
	Scroll(ctx context.Context, x, y int) error

	// WaitFor blocks until the selector resolves or the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Screenshot captures a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)

	// CurrentURL reports the active page URL.
	CurrentURL(ctx context.Context) (string, error)

	// Close tears down the browser session.
	Close(ctx context.Context) error
}

// EventType classifies a raw interaction captured in the browser.
type EventType string

const (
	EventClick    EventType = "click"
	EventInput    EventType = "type"
	EventNavigate EventType = "navigate"
	EventScroll   EventType = "scroll"
	EventHover    EventType = "hover"
	EventSelect   EventType = "select"
	EventSubmit   EventType = "submit"
)

// IsValid checks if the event type is one the pipeline understands.
func (t EventType) IsValid() bool {
	switch t {
	case EventClick, EventInput, EventNavigate, EventScroll, EventHover, EventSelect, EventSubmit:
		return true
	default:
		return false
	}
}

// Point is a viewport coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an element's position and size in the viewport.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is the snapshot of the DOM element an event targeted, captured at
// event time so synthesis never has to query the live page.
type Element struct {
	Tag         string            `json:"tag"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Text        string            `json:"text,omitempty"`
	AriaLabel   string            `json:"aria_label,omitempty"`
	BoundingBox *BoundingBox      `json:"bounding_box,omitempty"`
}

// Attr returns the named attribute or an empty string.
func (e *Element) Attr(name string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[name]
}

// Event is one raw browser interaction. Events are ephemeral: they are
// consumed exactly once by step synthesis and never persisted.
type Event struct {
	Type        EventType `json:"type"`
	PageURL     string    `json:"page_url"`
	Coordinates *Point    `json:"coordinates,omitempty"`
	Element     *Element  `json:"element,omitempty"`
	Value       string    `json:"value,omitempty"`
	ScrollX     int       `json:"scroll_x,omitempty"`
	ScrollY     int       `json:"scroll_y,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
