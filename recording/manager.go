package recording

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
)

// eventBuffer caps how many raw events may queue per recording before new
// events are dropped. Raw events are at-most-once; a full buffer means the
// synthesizer cannot keep up and losing events is preferable to blocking
// the capture channel.
const eventBuffer = 256

// Synthesizer turns raw browser events into test steps. Implementations keep
// per-session state (such as a pending merged step), so one synthesizer
// serves exactly one recording session.
type Synthesizer interface {
	// Ingest consumes one event. It returns the steps the event finalized,
	// which may be empty when the event was absorbed into pending state, or
	// two when the event both flushed a pending step and produced its own.
	Ingest(ctx context.Context, event browser.Event) ([]*Step, error)

	// Flush finalizes and returns the pending step, if any.
	Flush(ctx context.Context) (*Step, error)
}

// SynthesizerFactory creates a synthesizer bound to one recording session.
type SynthesizerFactory func(sessionID uuid.UUID) Synthesizer

// FeedbackType classifies a real-time feedback message.
type FeedbackType string

const (
	FeedbackStepCaptured      FeedbackType = "step_captured"
	FeedbackRecordingStarted  FeedbackType = "recording_started"
	FeedbackRecordingPaused   FeedbackType = "recording_paused"
	FeedbackRecordingResumed  FeedbackType = "recording_resumed"
	FeedbackRecordingStopped  FeedbackType = "recording_stopped"
	FeedbackErrorOccurred     FeedbackType = "error_occurred"
)

// Feedback is one real-time message pushed to subscribers of a recording.
type Feedback struct {
	Type        FeedbackType           `json:"type"`
	RecordingID uuid.UUID              `json:"recording_id"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers feedback to real-time subscribers. Delivery is best
// effort; a publisher must never block the caller.
type Publisher interface {
	PublishRecording(ctx context.Context, feedback Feedback)
}

// NopPublisher discards all feedback.
type NopPublisher struct{}

// PublishRecording implements Publisher.
func (NopPublisher) PublishRecording(ctx context.Context, feedback Feedback) {}

// activeRecording is the in-memory side of one live recording session. The
// mutex guards paused and closed together with sends on events, so an event
// can never be sent on a closed channel.
type activeRecording struct {
	id               uuid.UUID
	browserSessionID string
	synth            Synthesizer

	mu          sync.Mutex
	paused      bool
	closed      bool
	flushOnExit bool

	events chan browser.Event
	done   chan struct{}
}

// Manager owns the lifecycle of live recording sessions. One worker goroutine
// per session drains captured events in arrival order through the
// synthesizer, persists the resulting steps, and publishes feedback.
type Manager struct {
	store     Store
	steps     StepStore
	publisher Publisher
	newSynth  SynthesizerFactory
	logger    logger.Logger

	lowConfidenceThreshold float64

	mu        sync.Mutex
	active    map[uuid.UUID]*activeRecording
	byBrowser map[string]uuid.UUID
}

// NewManager creates a recording manager.
func NewManager(store Store, steps StepStore, publisher Publisher, newSynth SynthesizerFactory, log logger.Logger) *Manager {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Manager{
		store:                  store,
		steps:                  steps,
		publisher:              publisher,
		newSynth:               newSynth,
		logger:                 log,
		lowConfidenceThreshold: DefaultQualityLimits().LowConfidenceThreshold,
		active:                 make(map[uuid.UUID]*activeRecording),
		byBrowser:              make(map[string]uuid.UUID),
	}
}

// Start creates a recording session and begins accepting browser events for
// it. A browser session may host at most one active recording.
func (m *Manager) Start(ctx context.Context, session *RecordingSession) error {
	m.mu.Lock()
	if _, busy := m.byBrowser[session.BrowserSessionID]; busy {
		m.mu.Unlock()
		return ErrSessionBusy
	}
	m.mu.Unlock()

	if err := m.store.Create(ctx, session); err != nil {
		return err
	}

	ar := &activeRecording{
		id:               session.ID,
		browserSessionID: session.BrowserSessionID,
		synth:            m.newSynth(session.ID),
		events:           make(chan browser.Event, eventBuffer),
		done:             make(chan struct{}),
	}

	m.mu.Lock()
	m.active[session.ID] = ar
	m.byBrowser[session.BrowserSessionID] = session.ID
	m.mu.Unlock()

	go m.run(ar)

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackRecordingStarted,
		RecordingID: session.ID,
		Data: map[string]interface{}{
			"name":   session.Name,
			"status": session.Status,
		},
	})

	m.logger.Info(ctx, "recording started", map[string]interface{}{
		"recording_session_id": session.ID,
		"browser_session_id":   session.BrowserSessionID,
	})

	return nil
}

// HandleBrowserEvent enqueues one captured event for synthesis. Events
// arriving while the session is paused are dropped, not queued.
func (m *Manager) HandleBrowserEvent(ctx context.Context, recordingID uuid.UUID, event browser.Event) error {
	ar := m.lookup(recordingID)
	if ar == nil {
		return ErrRecordingNotFound
	}

	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.closed {
		return ErrRecordingFinished
	}
	if ar.paused {
		return nil
	}

	select {
	case ar.events <- event:
	default:
		m.logger.Warn(ctx, "event buffer full, dropping event", map[string]interface{}{
			"recording_session_id": recordingID,
			"event_type":           event.Type,
		})
	}
	return nil
}

// Pause suspends event capture for a session. The pending merged step stays
// pending and survives the pause.
func (m *Manager) Pause(ctx context.Context, id uuid.UUID) error {
	ar := m.lookup(id)
	if ar == nil {
		return ErrRecordingNotFound
	}

	if err := m.store.Pause(ctx, id); err != nil {
		return err
	}

	ar.mu.Lock()
	ar.paused = true
	ar.mu.Unlock()

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackRecordingPaused,
		RecordingID: id,
	})
	return nil
}

// Resume re-enables event capture for a paused session.
func (m *Manager) Resume(ctx context.Context, id uuid.UUID) error {
	ar := m.lookup(id)
	if ar == nil {
		return ErrRecordingNotFound
	}

	if err := m.store.Resume(ctx, id); err != nil {
		return err
	}

	ar.mu.Lock()
	ar.paused = false
	ar.mu.Unlock()

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackRecordingResumed,
		RecordingID: id,
	})
	return nil
}

// Complete finalizes a recording: pending synthesis state is flushed into a
// last step, the session transitions to completed, and the browser session is
// released. Completing an already-completed session is a no-op.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID) (*RecordingSession, error) {
	if ar := m.lookup(id); ar != nil {
		m.stop(ar, true)
	}

	session, err := m.store.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	m.release(id)

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackRecordingStopped,
		RecordingID: id,
		Data: map[string]interface{}{
			"status":      session.Status,
			"steps_count": session.StepsCount,
		},
	})

	m.logger.Info(ctx, "recording completed", map[string]interface{}{
		"recording_session_id": id,
		"duration_seconds":     session.DurationSeconds,
	})

	return session, nil
}

// Cancel discards a recording without flushing pending synthesis state.
// Steps already persisted are kept.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID) (*RecordingSession, error) {
	if ar := m.lookup(id); ar != nil {
		m.stop(ar, false)
	}

	session, err := m.store.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	m.release(id)

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackRecordingStopped,
		RecordingID: id,
		Data: map[string]interface{}{
			"status": session.Status,
		},
	})

	return session, nil
}

// Fail marks a recording as failed, for example when the browser connection
// is lost mid-capture.
func (m *Manager) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	if ar := m.lookup(id); ar != nil {
		m.stop(ar, false)
	}

	if err := m.store.Fail(ctx, id); err != nil {
		return err
	}

	m.release(id)

	data := map[string]interface{}{}
	if cause != nil {
		data["error"] = cause.Error()
	}
	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackErrorOccurred,
		RecordingID: id,
		Data:        data,
	})

	return nil
}

func (m *Manager) lookup(id uuid.UUID) *activeRecording {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[id]
}

// stop closes the event channel exactly once and waits for the worker to
// drain. flush decides whether pending synthesis state becomes a final step.
func (m *Manager) stop(ar *activeRecording, flush bool) {
	ar.mu.Lock()
	if !ar.closed {
		ar.closed = true
		ar.flushOnExit = flush
		close(ar.events)
	}
	ar.mu.Unlock()

	<-ar.done
}

func (m *Manager) release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ar, ok := m.active[id]; ok {
		delete(m.byBrowser, ar.browserSessionID)
		delete(m.active, id)
	}
}

// run drains one recording's events in arrival order.
func (m *Manager) run(ar *activeRecording) {
	defer close(ar.done)
	ctx := context.Background()

	for event := range ar.events {
		if event.Type == browser.EventNavigate && event.PageURL != "" {
			if err := m.store.Update(ctx, ar.id, SetCurrentURL(event.PageURL)); err != nil {
				m.logger.Warn(ctx, "failed to track current URL", map[string]interface{}{
					"recording_session_id": ar.id,
					"error":                err.Error(),
				})
			}
		}

		steps, err := ar.synth.Ingest(ctx, event)
		if err != nil {
			m.publishSynthError(ctx, ar.id, err)
			continue
		}
		for _, step := range steps {
			m.persistStep(ctx, ar.id, step)
		}
	}

	if ar.flushOnExit {
		step, err := ar.synth.Flush(ctx)
		if err != nil {
			m.publishSynthError(ctx, ar.id, err)
			return
		}
		if step != nil {
			m.persistStep(ctx, ar.id, step)
		}
	}
}

func (m *Manager) persistStep(ctx context.Context, recordingID uuid.UUID, step *Step) {
	step.RecordingSessionID = recordingID

	if err := m.steps.Append(ctx, step); err != nil {
		m.logger.Error(ctx, "failed to persist synthesized step", map[string]interface{}{
			"recording_session_id": recordingID,
			"error":                err.Error(),
		})
		m.publishSynthError(ctx, recordingID, err)
		return
	}

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackStepCaptured,
		RecordingID: recordingID,
		Data: map[string]interface{}{
			"step":           step,
			"low_confidence": step.ConfidenceScore < m.lowConfidenceThreshold,
		},
	})
}

// publishSynthError surfaces a synthesis failure to subscribers. The
// recording keeps going; one bad event never kills the session.
func (m *Manager) publishSynthError(ctx context.Context, recordingID uuid.UUID, err error) {
	m.logger.Error(ctx, "step synthesis failed", map[string]interface{}{
		"recording_session_id": recordingID,
		"error":                err.Error(),
	})

	m.publisher.PublishRecording(ctx, Feedback{
		Type:        FeedbackErrorOccurred,
		RecordingID: recordingID,
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	})
}
