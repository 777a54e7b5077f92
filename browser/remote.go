package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stepwright/stepwright/logger"
)

const (
	remoteWriteWait      = 10 * time.Second
	remoteCommandTimeout = 30 * time.Second
)

// driverCommand is one JSON command sent to the browser driver process.
type driverCommand struct {
	ID        int64  `json:"id"`
	Method    string `json:"method"`
	Selector  string `json:"selector,omitempty"`
	URL       string `json:"url,omitempty"`
	Value     string `json:"value,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// driverResponse is the driver's reply to a command.
type driverResponse struct {
	ID    int64           `json:"id"`
	Error *driverError    `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type driverError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemoteAdapter implements Adapter by forwarding primitives over a WebSocket
// to a browser driver process. One goroutine owns all writes; the read pump
// routes responses back to the waiting caller by command id.
type RemoteAdapter struct {
	sessionID string
	conn      *websocket.Conn
	logger    logger.Logger

	sendCh  chan *driverCommand
	done    chan struct{}
	closeMu sync.Once
	msgID   int64

	pendingMu sync.Mutex
	pending   map[int64]chan *driverResponse
}

// DialRemote connects to the browser driver at wsURL and opens a session.
func DialRemote(ctx context.Context, wsURL, sessionID string, log logger.Logger) (*RemoteAdapter, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial browser driver: %w", err)
	}

	a := &RemoteAdapter{
		sessionID: sessionID,
		conn:      conn,
		logger:    log.WithField("browser_session_id", sessionID),
		sendCh:    make(chan *driverCommand, 32),
		done:      make(chan struct{}),
		pending:   make(map[int64]chan *driverResponse),
	}

	go a.readPump()
	go a.writePump()

	return a, nil
}

func (a *RemoteAdapter) readPump() {
	for {
		var resp driverResponse
		if err := a.conn.ReadJSON(&resp); err != nil {
			a.logger.Warn(context.Background(), "driver connection read failed", map[string]interface{}{
				"error": err.Error(),
			})
			a.shutdown()
			return
		}

		a.pendingMu.Lock()
		ch, ok := a.pending[resp.ID]
		if ok {
			delete(a.pending, resp.ID)
		}
		a.pendingMu.Unlock()

		if ok {
			ch <- &resp
		}
	}
}

func (a *RemoteAdapter) writePump() {
	for {
		select {
		case cmd := <-a.sendCh:
			a.conn.SetWriteDeadline(time.Now().Add(remoteWriteWait))
			if err := a.conn.WriteJSON(cmd); err != nil {
				a.logger.Warn(context.Background(), "driver connection write failed", map[string]interface{}{
					"error": err.Error(),
				})
				a.shutdown()
				return
			}
		case <-a.done:
			return
		}
	}
}

func (a *RemoteAdapter) shutdown() {
	a.closeMu.Do(func() {
		close(a.done)
		a.conn.Close()

		a.pendingMu.Lock()
		for id, ch := range a.pending {
			delete(a.pending, id)
			close(ch)
		}
		a.pendingMu.Unlock()
	})
}

// execute sends one command and waits for its response.
func (a *RemoteAdapter) execute(ctx context.Context, cmd *driverCommand) (*driverResponse, error) {
	select {
	case <-a.done:
		return nil, ErrSessionClosed
	default:
	}

	cmd.ID = atomic.AddInt64(&a.msgID, 1)

	respCh := make(chan *driverResponse, 1)
	a.pendingMu.Lock()
	a.pending[cmd.ID] = respCh
	a.pendingMu.Unlock()

	select {
	case a.sendCh <- cmd:
	case <-a.done:
		a.dropPending(cmd.ID)
		return nil, ErrSessionClosed
	case <-ctx.Done():
		a.dropPending(cmd.ID)
		return nil, ctx.Err()
	}

	timeout := time.NewTimer(remoteCommandTimeout)
	defer timeout.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrSessionClosed
		}
		if resp.Error != nil {
			if resp.Error.Code == "ELEMENT_NOT_FOUND" {
				return nil, fmt.Errorf("%w: %s", ErrElementNotFound, resp.Error.Message)
			}
			return nil, fmt.Errorf("driver error %s: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-timeout.C:
		a.dropPending(cmd.ID)
		return nil, fmt.Errorf("driver command %q timed out", cmd.Method)
	case <-ctx.Done():
		a.dropPending(cmd.ID)
		return nil, ctx.Err()
	}
}

// dropPending abandons a command that will never get a response, so the
// pending map does not grow on timeouts and cancelled contexts.
func (a *RemoteAdapter) dropPending(id int64) {
	a.pendingMu.Lock()
	delete(a.pending, id)
	a.pendingMu.Unlock()
}

// Navigate loads the given URL.
func (a *RemoteAdapter) Navigate(ctx context.Context, url string) error {
	_, err := a.execute(ctx, &driverCommand{Method: "navigate", URL: url})
	return err
}

// Click clicks the element matched by the selector.
func (a *RemoteAdapter) Click(ctx context.Context, selector string) error {
	_, err := a.execute(ctx, &driverCommand{Method: "click", Selector: selector})
	return err
}

// Type replaces the value of the element matched by the selector.
func (a *RemoteAdapter) Type(ctx context.Context, selector, value string) error {
	_, err := a.execute(ctx, &driverCommand{Method: "type", Selector: selector, Value: value})
	return err
}

// Select picks an option value in the element matched by the selector.
func (a *RemoteAdapter) Select(ctx context.Context, selector, value string) error {
	_, err := a.execute(ctx, &driverCommand{Method: "select", Selector: selector, Value: value})
	return err
}

// Hover moves the pointer over the element matched by the selector.
func (a *RemoteAdapter) Hover(ctx context.Context, selector string) error {
	_, err := a.execute(ctx, &driverCommand{Method: "hover", Selector: selector})
	return err
}

// Scroll scrolls the page to the given coordinates.
func (a *RemoteAdapter) Scroll(ctx context.Context, x, y int) error {
	_, err := a.execute(ctx, &driverCommand{Method: "scroll", X: x, Y: y})
	return err
}

// WaitFor blocks until the selector resolves or the timeout elapses.
func (a *RemoteAdapter) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := a.execute(ctx, &driverCommand{
		Method:    "wait_for",
		Selector:  selector,
		TimeoutMS: timeout.Milliseconds(),
	})
	return err
}

// Screenshot captures a PNG of the current viewport.
func (a *RemoteAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := a.execute(ctx, &driverCommand{Method: "screenshot"})
	if err != nil {
		return nil, err
	}

	var data struct {
		PNG []byte `json:"png"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return data.PNG, nil
}

// CurrentURL reports the active page URL.
func (a *RemoteAdapter) CurrentURL(ctx context.Context) (string, error) {
	resp, err := a.execute(ctx, &driverCommand{Method: "current_url"})
	if err != nil {
		return "", err
	}

	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode url: %w", err)
	}
	return data.URL, nil
}

// Close tears down the driver connection.
func (a *RemoteAdapter) Close(ctx context.Context) error {
	_, _ = a.execute(ctx, &driverCommand{Method: "close"})
	a.shutdown()
	return nil
}
