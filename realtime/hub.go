package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/playback"
	"github.com/stepwright/stepwright/recording"
)

const (
	// writeWait bounds one write to a peer.
	writeWait = 10 * time.Second

	// pongWait is how long a peer may stay silent before the connection is
	// considered dead.
	pongWait = 60 * time.Second

	// pingPeriod is the heartbeat interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound messages.
	maxMessageSize = 64 * 1024

	// sendBuffer is each connection's outbound queue. Delivery is at most
	// once: a full queue drops the message rather than stall the hub.
	sendBuffer = 64
)

// EventHandler consumes browser events received over the wire. The recording
// manager implements it.
type EventHandler interface {
	HandleBrowserEvent(ctx context.Context, recordingID uuid.UUID, event browser.Event) error
}

// conn is one connected WebSocket peer. send is never closed; done signals
// the write pump to exit so publishers racing a disconnect cannot hit a
// closed channel.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	mu            sync.Mutex
	subscriptions map[string]bool
}

func (c *conn) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[channel]
}

func (c *conn) subscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[channel] = true
}

func (c *conn) unsubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, channel)
}

// Hub fans domain feedback out to WebSocket subscribers and routes inbound
// browser events to the recording pipeline. It implements both the recording
// and the playback publisher interfaces.
type Hub struct {
	upgrader websocket.Upgrader
	handler  EventHandler
	logger   logger.Logger

	mu    sync.Mutex
	conns map[*conn]bool
}

// NewHub creates a hub. handler may be nil when the hub only publishes.
func NewHub(handler EventHandler, log logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser extension and CLI clients connect from anywhere;
			// identity is established by the HTTP middleware before the
			// upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler: handler,
		logger:  log,
		conns:   make(map[*conn]bool),
	}
}

// SetHandler installs the browser event consumer. The hub and the recording
// manager reference each other, so one of them is wired after construction.
// Call before serving connections.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}

// ServeWS upgrades an HTTP request and pumps messages until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	c := &conn{
		ws:            ws,
		send:          make(chan []byte, sendBuffer),
		done:          make(chan struct{}),
		subscriptions: make(map[string]bool),
	}

	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// ConnectionCount reports the number of connected peers.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		close(c.done)
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(c *conn) {
	defer func() {
		h.remove(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg InboundMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(context.Background(), "websocket read failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		h.dispatch(c, &msg)
	}
}

func (h *Hub) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) dispatch(c *conn, msg *InboundMessage) {
	ctx := context.Background()

	if err := msg.Validate(); err != nil {
		h.sendTo(c, errorEnvelope(err.Error()))
		return
	}

	switch msg.Type {
	case MessageSubscribe:
		c.subscribe(msg.Channel)
		h.sendTo(c, &Envelope{Type: MessageSubscribed, Channel: msg.Channel})
	case MessageUnsubscribe:
		c.unsubscribe(msg.Channel)
		h.sendTo(c, &Envelope{Type: MessageUnsubscribed, Channel: msg.Channel})
	case MessageBrowserEvent:
		if h.handler == nil {
			h.sendTo(c, errorEnvelope("event ingestion is not enabled"))
			return
		}
		if err := h.handler.HandleBrowserEvent(ctx, msg.RecordingID, *msg.Event); err != nil {
			h.sendTo(c, errorEnvelope(err.Error()))
		}
	}
}

// sendTo queues one message for a peer, dropping it when the peer is slow
// or already gone.
func (h *Hub) sendTo(c *conn, envelope *Envelope) {
	select {
	case c.send <- envelope.marshal():
	case <-c.done:
	default:
		h.logger.Warn(context.Background(), "dropping message for slow subscriber", map[string]interface{}{
			"message_type": envelope.Type,
		})
	}
}

// broadcast delivers an envelope to every subscriber of a channel.
func (h *Hub) broadcast(channel string, envelope *Envelope) {
	envelope.Channel = channel
	payload := envelope.marshal()

	h.mu.Lock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if c.subscribed(channel) {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- payload:
		case <-c.done:
		default:
			h.logger.Warn(context.Background(), "dropping broadcast for slow subscriber", map[string]interface{}{
				"channel": channel,
			})
		}
	}
}

// PublishRecording implements recording.Publisher.
func (h *Hub) PublishRecording(ctx context.Context, feedback recording.Feedback) {
	h.broadcast(Channel(ChannelRecording, feedback.RecordingID), &Envelope{
		Type: string(feedback.Type),
		Data: feedback.Data,
	})
}

// PublishPlayback implements playback.Publisher.
func (h *Hub) PublishPlayback(ctx context.Context, event playback.Event) {
	h.broadcast(Channel(ChannelPlayback, event.PlaybackID), &Envelope{
		Type: string(event.Type),
		Data: event.Data,
	})
}
