package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/browser"
)

func TestParseChannel(t *testing.T) {
	id := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		kind, parsed, err := ParseChannel(Channel(ChannelRecording, id))
		require.NoError(t, err)
		assert.Equal(t, ChannelRecording, kind)
		assert.Equal(t, id, parsed)
	})

	t.Run("playback kind", func(t *testing.T) {
		kind, _, err := ParseChannel(Channel(ChannelPlayback, id))
		require.NoError(t, err)
		assert.Equal(t, ChannelPlayback, kind)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, _, err := ParseChannel("recording")
		assert.ErrorIs(t, err, ErrInvalidChannel)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := ParseChannel("project:" + id.String())
		assert.ErrorIs(t, err, ErrInvalidChannel)
	})

	t.Run("bad id", func(t *testing.T) {
		_, _, err := ParseChannel("recording:not-a-uuid")
		assert.ErrorIs(t, err, ErrInvalidChannel)
	})
}

func TestInboundMessage_Validate(t *testing.T) {
	id := uuid.New()

	t.Run("subscribe", func(t *testing.T) {
		msg := &InboundMessage{Type: MessageSubscribe, Channel: Channel(ChannelRecording, id)}
		assert.NoError(t, msg.Validate())
	})

	t.Run("subscribe with bad channel", func(t *testing.T) {
		msg := &InboundMessage{Type: MessageSubscribe, Channel: "bogus"}
		assert.ErrorIs(t, msg.Validate(), ErrInvalidChannel)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		msg := &InboundMessage{Type: MessageUnsubscribe, Channel: Channel(ChannelPlayback, id)}
		assert.NoError(t, msg.Validate())
	})

	t.Run("browser event", func(t *testing.T) {
		msg := &InboundMessage{
			Type:        MessageBrowserEvent,
			RecordingID: id,
			Event: &browser.Event{
				Type:      browser.EventClick,
				PageURL:   "https://example.com",
				Timestamp: time.Now(),
			},
		}
		assert.NoError(t, msg.Validate())
	})

	t.Run("browser event without recording id", func(t *testing.T) {
		msg := &InboundMessage{
			Type:  MessageBrowserEvent,
			Event: &browser.Event{Type: browser.EventClick},
		}
		assert.Error(t, msg.Validate())
	})

	t.Run("browser event without payload", func(t *testing.T) {
		msg := &InboundMessage{Type: MessageBrowserEvent, RecordingID: id}
		assert.Error(t, msg.Validate())
	})

	t.Run("browser event with unknown type", func(t *testing.T) {
		msg := &InboundMessage{
			Type:        MessageBrowserEvent,
			RecordingID: id,
			Event:       &browser.Event{Type: "drag"},
		}
		assert.Error(t, msg.Validate())
	})

	t.Run("unknown message type", func(t *testing.T) {
		msg := &InboundMessage{Type: "broadcast"}
		assert.ErrorIs(t, msg.Validate(), ErrUnknownMessageType)
	})
}

func TestBackoff_Next(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: 1 * time.Second, Factor: 2}

	d := b.next(0)
	assert.Equal(t, 100*time.Millisecond, d)

	d = b.next(d)
	assert.Equal(t, 200*time.Millisecond, d)

	d = b.next(800 * time.Millisecond)
	assert.Equal(t, 1*time.Second, d)

	d = b.next(time.Second)
	assert.Equal(t, 1*time.Second, d)
}
