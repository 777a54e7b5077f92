package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/logger"
)

// newSilentDriver serves a driver endpoint that reads commands but never
// replies, so callers are left waiting on their response channels.
func newSilentDriver(t *testing.T) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (a *RemoteAdapter) pendingCount() int {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	return len(a.pending)
}

func TestRemoteAdapter_CancelledCommandDoesNotLeak(t *testing.T) {
	wsURL := newSilentDriver(t)

	adapter, err := DialRemote(context.Background(), wsURL, "session-1", logger.NewTestLogger())
	require.NoError(t, err)
	defer adapter.shutdown()

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		err := adapter.Click(ctx, "#save")
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	assert.Equal(t, 0, adapter.pendingCount())
}

func TestRemoteAdapter_ExecuteAfterShutdown(t *testing.T) {
	wsURL := newSilentDriver(t)

	adapter, err := DialRemote(context.Background(), wsURL, "session-2", logger.NewTestLogger())
	require.NoError(t, err)
	adapter.shutdown()

	err = adapter.Navigate(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, 0, adapter.pendingCount())
}
