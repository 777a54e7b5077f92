package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/browser"
)

var (
	// ErrUnknownMessageType is returned for inbound messages outside the
	// protocol. Unknown messages are rejected at the boundary, never
	// silently dropped.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrInvalidChannel is returned when a channel reference is malformed.
	ErrInvalidChannel = errors.New("invalid channel")
)

// ChannelKind names a stream of domain events.
type ChannelKind string

const (
	// ChannelRecording streams live synthesis feedback for one recording.
	ChannelRecording ChannelKind = "recording"

	// ChannelPlayback streams replay progress for one playback session.
	ChannelPlayback ChannelKind = "playback"
)

// IsValid checks if the channel kind is one the hub serves.
func (k ChannelKind) IsValid() bool {
	return k == ChannelRecording || k == ChannelPlayback
}

// Channel formats a channel reference, e.g. "recording:<id>".
func Channel(kind ChannelKind, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", kind, id)
}

// ParseChannel validates and splits a channel reference.
func ParseChannel(channel string) (ChannelKind, uuid.UUID, error) {
	parts := strings.SplitN(channel, ":", 2)
	if len(parts) != 2 {
		return "", uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}

	kind := ChannelKind(parts[0])
	if !kind.IsValid() {
		return "", uuid.Nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidChannel, parts[0])
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}

	return kind, id, nil
}

// Inbound message types.
const (
	MessageSubscribe    = "subscribe"
	MessageUnsubscribe  = "unsubscribe"
	MessageBrowserEvent = "browser_event"
)

// InboundMessage is one client-to-server message. Type decides which of the
// remaining fields matter.
type InboundMessage struct {
	Type        string         `json:"type"`
	Channel     string         `json:"channel,omitempty"`
	RecordingID uuid.UUID      `json:"recording_id,omitempty"`
	Event       *browser.Event `json:"event,omitempty"`
}

// Validate rejects malformed messages at the boundary.
func (m *InboundMessage) Validate() error {
	switch m.Type {
	case MessageSubscribe, MessageUnsubscribe:
		_, _, err := ParseChannel(m.Channel)
		return err
	case MessageBrowserEvent:
		if m.RecordingID == uuid.Nil {
			return errors.New("recording_id is required")
		}
		if m.Event == nil {
			return errors.New("event is required")
		}
		if !m.Event.Type.IsValid() {
			return fmt.Errorf("unknown event type %q", m.Event.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}
}

// Outbound message types beyond the domain feedback relayed per channel.
const (
	MessageSubscribed   = "subscribed"
	MessageUnsubscribed = "unsubscribed"
	MessageError        = "error"
)

// Envelope is one server-to-client message.
type Envelope struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Envelope) marshal() []byte {
	payload, err := json.Marshal(e)
	if err != nil {
		// Envelope data is always our own serializable types.
		payload, _ = json.Marshal(Envelope{
			Type: MessageError,
			Data: map[string]string{"error": "failed to encode message"},
		})
	}
	return payload
}

// errorEnvelope builds the standard error reply.
func errorEnvelope(message string) *Envelope {
	return &Envelope{
		Type: MessageError,
		Data: map[string]string{"error": message},
	}
}
