package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
)

// ErrClientClosed is returned when the client is used after Close.
var ErrClientClosed = errors.New("realtime client is closed")

// Backoff controls the reconnect delay. The delay starts at Initial and is
// multiplied by Factor after each failed attempt, capped at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// DefaultBackoff is the reconnect policy used when none is given.
var DefaultBackoff = Backoff{
	Initial: 500 * time.Millisecond,
	Max:     30 * time.Second,
	Factor:  2,
}

func (b Backoff) next(current time.Duration) time.Duration {
	if current <= 0 {
		return b.Initial
	}
	next := time.Duration(float64(current) * b.Factor)
	if next > b.Max {
		next = b.Max
	}
	return next
}

// Client is a reconnecting WebSocket client for the realtime channel.
// Subscriptions are restored after each reconnect. Messages published while
// disconnected are lost; the channel is at most once by design.
type Client struct {
	url       string
	backoff   Backoff
	liveness  time.Duration
	onMessage func(Envelope)
	logger    logger.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	subscriptions map[string]bool
	closed        bool

	done chan struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBackoff overrides the reconnect policy.
func WithBackoff(b Backoff) ClientOption {
	return func(c *Client) { c.backoff = b }
}

// WithMessageHandler registers a callback invoked for every received
// envelope. The callback runs on the read loop; it must not block.
func WithMessageHandler(fn func(Envelope)) ClientOption {
	return func(c *Client) { c.onMessage = fn }
}

// WithLivenessTimeout overrides how long a connection may stay silent before
// it is treated as dead. The hub pings well inside the default window.
func WithLivenessTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.liveness = d }
}

// Dial connects to the hub at wsURL and starts the reconnect loop.
func Dial(ctx context.Context, wsURL string, log logger.Logger, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:           wsURL,
		backoff:       DefaultBackoff,
		liveness:      pongWait,
		logger:        log,
		subscriptions: make(map[string]bool),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime channel: %w", err)
	}
	c.conn = conn
	c.armLiveness(conn)

	go c.readLoop(conn)

	return c, nil
}

// Subscribe joins a channel. The subscription survives reconnects.
func (c *Client) Subscribe(kind ChannelKind, id uuid.UUID) error {
	channel := Channel(kind, id)

	c.mu.Lock()
	c.subscriptions[channel] = true
	c.mu.Unlock()

	return c.write(InboundMessage{Type: MessageSubscribe, Channel: channel})
}

// Unsubscribe leaves a channel.
func (c *Client) Unsubscribe(kind ChannelKind, id uuid.UUID) error {
	channel := Channel(kind, id)

	c.mu.Lock()
	delete(c.subscriptions, channel)
	c.mu.Unlock()

	return c.write(InboundMessage{Type: MessageUnsubscribe, Channel: channel})
}

// SendEvent forwards one captured browser event to the recording pipeline.
func (c *Client) SendEvent(recordingID uuid.UUID, event browser.Event) error {
	return c.write(InboundMessage{
		Type:        MessageBrowserEvent,
		RecordingID: recordingID,
		Event:       &event,
	})
}

// Close tears the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return conn.Close()
	}
	return nil
}

func (c *Client) write(msg InboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.conn == nil {
		return errors.New("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// armLiveness bounds how long a connection may stay silent. Each server ping
// pushes the read deadline out, so only a dead peer lets it expire.
func (c *Client) armLiveness(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(c.liveness))
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(c.liveness))
		return conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(writeWait))
	})
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var envelope Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			conn.Close()

			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()

			if closed {
				return
			}

			c.logger.Warn(context.Background(), "realtime connection lost, reconnecting", map[string]interface{}{
				"error": err.Error(),
			})
			c.reconnect()
			return
		}

		if c.onMessage != nil {
			c.onMessage(envelope)
		}
	}
}

// reconnect dials until it succeeds or the client is closed, then restores
// the channel subscriptions.
func (c *Client) reconnect() {
	var delay time.Duration

	for {
		delay = c.backoff.next(delay)

		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.logger.Warn(context.Background(), "realtime reconnect failed", map[string]interface{}{
				"error":      err.Error(),
				"next_retry": c.backoff.next(delay).String(),
			})
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.armLiveness(conn)
		channels := make([]string, 0, len(c.subscriptions))
		for channel := range c.subscriptions {
			channels = append(channels, channel)
		}
		c.mu.Unlock()

		for _, channel := range channels {
			if err := c.write(InboundMessage{Type: MessageSubscribe, Channel: channel}); err != nil {
				c.logger.Warn(context.Background(), "failed to restore subscription", map[string]interface{}{
					"channel": channel,
					"error":   err.Error(),
				})
			}
		}

		go c.readLoop(conn)
		return
	}
}
