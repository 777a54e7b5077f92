package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/storage"
)

const (
	// baseStepDelay is the pause between steps at speed 1.0. Speed divides
	// this delay and nothing else; primitive timeouts stay fixed.
	baseStepDelay = 500 * time.Millisecond

	// defaultWaitTimeout bounds wait and verify steps.
	defaultWaitTimeout = 5 * time.Second

	// defaultWaitDelay is how long a bare wait step with no selector sleeps.
	defaultWaitDelay = time.Second
)

// EventType classifies a playback progress message.
type EventType string

const (
	EventPlaybackStarted  EventType = "playback_started"
	EventStepCompleted    EventType = "step_completed"
	EventPlaybackPaused   EventType = "playback_paused"
	EventPlaybackResumed  EventType = "playback_resumed"
	EventPlaybackFinished EventType = "playback_finished"
)

// Event is one real-time progress message pushed to playback subscribers.
type Event struct {
	Type       EventType              `json:"type"`
	PlaybackID uuid.UUID              `json:"playback_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers playback progress to real-time subscribers.
type Publisher interface {
	PublishPlayback(ctx context.Context, event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// PublishPlayback implements Publisher.
func (NopPublisher) PublishPlayback(ctx context.Context, event Event) {}

// AdapterFactory opens a browser adapter for a browser session.
type AdapterFactory func(ctx context.Context, browserSessionID string) (browser.Adapter, error)

// activePlayback is the in-memory side of one running replay. The condition
// variable gates the worker between steps while paused.
type activePlayback struct {
	id               uuid.UUID
	browserSessionID string

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool

	done chan struct{}
}

func newActivePlayback(id uuid.UUID, browserSessionID string) *activePlayback {
	ap := &activePlayback{
		id:               id,
		browserSessionID: browserSessionID,
		done:             make(chan struct{}),
	}
	ap.cond = sync.NewCond(&ap.mu)
	return ap
}

// await blocks while the playback is paused. It reports false when the
// playback was stopped.
func (ap *activePlayback) await() bool {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	for ap.paused && !ap.stopped {
		ap.cond.Wait()
	}
	return !ap.stopped
}

// Engine replays recorded steps against live browser sessions. One worker
// goroutine per playback walks the snapshotted step list in order.
type Engine struct {
	store      Store
	results    ResultStore
	steps      recording.StepStore
	recordings recording.Store
	dial       AdapterFactory
	blobs      storage.BlobStorage
	publisher  Publisher
	logger     logger.Logger

	mu        sync.Mutex
	active    map[uuid.UUID]*activePlayback
	byBrowser map[string]uuid.UUID
}

// NewEngine creates a playback engine. blobs may be nil when screenshot
// capture is disabled globally.
func NewEngine(store Store, results ResultStore, steps recording.StepStore, recordings recording.Store,
	dial AdapterFactory, blobs storage.BlobStorage, publisher Publisher, log logger.Logger) *Engine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Engine{
		store:      store,
		results:    results,
		steps:      steps,
		recordings: recordings,
		dial:       dial,
		blobs:      blobs,
		publisher:  publisher,
		logger:     log,
		active:     make(map[uuid.UUID]*activePlayback),
		byBrowser:  make(map[string]uuid.UUID),
	}
}

// Start snapshots the recording's current steps and begins replaying them.
// A browser session runs at most one playback at a time.
func (e *Engine) Start(ctx context.Context, session *PlaybackSession) error {
	if _, err := e.recordings.GetByID(ctx, session.RecordingSessionID); err != nil {
		return err
	}

	// Copy-on-start: edits made after this point do not affect the replay.
	snapshot, err := e.steps.ListBySession(ctx, session.RecordingSessionID)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return ErrNoSteps
	}

	// Reserve the browser session before any slow work so two concurrent
	// starts cannot both pass the busy check.
	e.mu.Lock()
	if _, busy := e.byBrowser[session.BrowserSessionID]; busy {
		e.mu.Unlock()
		return ErrSessionBusy
	}
	e.byBrowser[session.BrowserSessionID] = uuid.Nil
	e.mu.Unlock()

	unreserve := func() {
		e.mu.Lock()
		delete(e.byBrowser, session.BrowserSessionID)
		e.mu.Unlock()
	}

	session.TotalSteps = len(snapshot)
	session.StartedAt = time.Now()
	if err := e.store.Create(ctx, session); err != nil {
		unreserve()
		return err
	}

	adapter, err := e.dial(ctx, session.BrowserSessionID)
	if err != nil {
		unreserve()
		finishErr := e.store.Finish(ctx, session.ID, StatusFailed, err.Error())
		if finishErr != nil {
			e.logger.Error(ctx, "failed to mark playback failed", map[string]interface{}{
				"playback_session_id": session.ID,
				"error":               finishErr.Error(),
			})
		}
		return fmt.Errorf("failed to open browser session: %w", err)
	}

	ap := newActivePlayback(session.ID, session.BrowserSessionID)

	e.mu.Lock()
	e.active[session.ID] = ap
	e.byBrowser[session.BrowserSessionID] = session.ID
	e.mu.Unlock()

	e.publisher.PublishPlayback(ctx, Event{
		Type:       EventPlaybackStarted,
		PlaybackID: session.ID,
		Data: map[string]interface{}{
			"recording_session_id": session.RecordingSessionID,
			"total_steps":          session.TotalSteps,
		},
	})

	go e.run(ap, session, snapshot, adapter)

	return nil
}

// Pause suspends the replay before its next step.
func (e *Engine) Pause(ctx context.Context, id uuid.UUID) error {
	ap := e.lookup(id)
	if ap == nil {
		return ErrPlaybackNotFound
	}

	if err := e.store.Pause(ctx, id); err != nil {
		return err
	}

	ap.mu.Lock()
	ap.paused = true
	ap.mu.Unlock()

	e.publisher.PublishPlayback(ctx, Event{Type: EventPlaybackPaused, PlaybackID: id})
	return nil
}

// Resume continues a paused replay.
func (e *Engine) Resume(ctx context.Context, id uuid.UUID) error {
	ap := e.lookup(id)
	if ap == nil {
		return ErrPlaybackNotFound
	}

	if err := e.store.Resume(ctx, id); err != nil {
		return err
	}

	ap.mu.Lock()
	ap.paused = false
	ap.cond.Broadcast()
	ap.mu.Unlock()

	e.publisher.PublishPlayback(ctx, Event{Type: EventPlaybackResumed, PlaybackID: id})
	return nil
}

// Stop cancels a replay. Steps not yet executed are recorded as skipped.
func (e *Engine) Stop(ctx context.Context, id uuid.UUID) error {
	ap := e.lookup(id)
	if ap == nil {
		return ErrPlaybackNotFound
	}

	ap.mu.Lock()
	ap.stopped = true
	ap.cond.Broadcast()
	ap.mu.Unlock()

	<-ap.done
	return nil
}

// Wait blocks until a playback's worker exits. Intended for tests and
// graceful shutdown.
func (e *Engine) Wait(id uuid.UUID) {
	e.mu.Lock()
	ap := e.active[id]
	e.mu.Unlock()
	if ap != nil {
		<-ap.done
	}
}

func (e *Engine) lookup(id uuid.UUID) *activePlayback {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active[id]
}

func (e *Engine) release(ap *activePlayback) {
	e.mu.Lock()
	delete(e.active, ap.id)
	delete(e.byBrowser, ap.browserSessionID)
	e.mu.Unlock()
}

// run walks the snapshot in order index order.
func (e *Engine) run(ap *activePlayback, session *PlaybackSession, snapshot []*recording.Step, adapter browser.Adapter) {
	ctx := context.Background()
	defer close(ap.done)
	defer e.release(ap)
	defer func() {
		if err := adapter.Close(ctx); err != nil {
			e.logger.Warn(ctx, "failed to close browser session", map[string]interface{}{
				"playback_session_id": ap.id,
				"error":               err.Error(),
			})
		}
	}()

	status := StatusCompleted
	errorMessage := ""

	for i, step := range snapshot {
		if i > 0 {
			time.Sleep(time.Duration(float64(baseStepDelay) / session.Speed))
		}

		if !ap.await() {
			e.skipFrom(ctx, ap.id, snapshot, i, "playback stopped")
			status = StatusCancelled
			break
		}

		result := e.executeStep(ctx, ap.id, step, adapter, session.CaptureScreenshots)
		if err := e.results.Create(ctx, result); err != nil {
			e.logger.Error(ctx, "failed to record step result", map[string]interface{}{
				"playback_session_id": ap.id,
				"order_index":         step.OrderIndex,
				"error":               err.Error(),
			})
		}

		if err := e.store.Update(ctx, ap.id, SetCurrentStepIndex(i+1)); err != nil {
			e.logger.Warn(ctx, "failed to update playback progress", map[string]interface{}{
				"playback_session_id": ap.id,
				"error":               err.Error(),
			})
		}

		e.publisher.PublishPlayback(ctx, Event{
			Type:       EventStepCompleted,
			PlaybackID: ap.id,
			Data: map[string]interface{}{
				"order_index": step.OrderIndex,
				"status":      result.Status,
				"duration_ms": result.DurationMS,
				"error":       result.ErrorMessage,
			},
		})

		if result.Status == ResultFailed {
			status = StatusFailed
			errorMessage = result.ErrorMessage
			if session.StopOnError {
				e.skipFrom(ctx, ap.id, snapshot, i+1, "previous step failed")
				break
			}
		}
	}

	if err := e.store.Finish(ctx, ap.id, status, errorMessage); err != nil && !errors.Is(err, ErrPlaybackFinished) {
		e.logger.Error(ctx, "failed to finish playback session", map[string]interface{}{
			"playback_session_id": ap.id,
			"error":               err.Error(),
		})
	}

	e.publisher.PublishPlayback(ctx, Event{
		Type:       EventPlaybackFinished,
		PlaybackID: ap.id,
		Data: map[string]interface{}{
			"status": status,
			"error":  errorMessage,
		},
	})

	e.logger.Info(ctx, "playback finished", map[string]interface{}{
		"playback_session_id": ap.id,
		"status":              status,
	})
}

// skipFrom records skipped results for every step at or after index from.
func (e *Engine) skipFrom(ctx context.Context, playbackID uuid.UUID, snapshot []*recording.Step, from int, reason string) {
	for _, step := range snapshot[from:] {
		result := &StepResult{
			PlaybackSessionID: playbackID,
			StepID:            step.ID,
			OrderIndex:        step.OrderIndex,
			Status:            ResultSkipped,
			ErrorMessage:      reason,
		}
		if err := e.results.Create(ctx, result); err != nil {
			e.logger.Error(ctx, "failed to record skipped step", map[string]interface{}{
				"playback_session_id": playbackID,
				"order_index":         step.OrderIndex,
				"error":               err.Error(),
			})
		}
	}
}

// executeStep replays one step, walking the selector fallback chain when the
// primary selector no longer resolves.
func (e *Engine) executeStep(ctx context.Context, playbackID uuid.UUID, step *recording.Step, adapter browser.Adapter, screenshots bool) *StepResult {
	result := &StepResult{
		PlaybackSessionID: playbackID,
		StepID:            step.ID,
		OrderIndex:        step.OrderIndex,
	}

	start := time.Now()
	selectorUsed, err := e.performAction(ctx, step, adapter)
	result.DurationMS = time.Since(start).Milliseconds()
	result.SelectorUsed = selectorUsed

	if err != nil {
		result.Status = ResultFailed
		result.ErrorMessage = err.Error()
	} else {
		result.Status = ResultPassed
	}

	if screenshots && e.blobs != nil {
		if path := e.captureScreenshot(ctx, playbackID, step, adapter); path != "" {
			result.ScreenshotPath = path
		}
	}

	return result
}

// performAction dispatches one step to the browser adapter. It returns the
// selector that finally resolved, for diagnostics.
func (e *Engine) performAction(ctx context.Context, step *recording.Step, adapter browser.Adapter) (string, error) {
	switch step.ActionType {
	case recording.ActionNavigate:
		url := step.Value
		if url == "" {
			url = step.ElementSelector
		}
		return "", adapter.Navigate(ctx, url)
	case recording.ActionScroll:
		var x, y int
		fmt.Sscanf(step.Value, "%d,%d", &x, &y)
		return "", adapter.Scroll(ctx, x, y)
	case recording.ActionWait:
		if step.ElementSelector == "" {
			time.Sleep(defaultWaitDelay)
			return "", nil
		}
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.WaitFor(ctx, selector, defaultWaitTimeout)
		})
	case recording.ActionVerify:
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.WaitFor(ctx, selector, defaultWaitTimeout)
		})
	case recording.ActionClick:
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.Click(ctx, selector)
		})
	case recording.ActionInput:
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.Type(ctx, selector, step.Value)
		})
	case recording.ActionSelect:
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.Select(ctx, selector, step.Value)
		})
	case recording.ActionHover:
		return e.withFallback(ctx, step, func(selector string) error {
			return adapter.Hover(ctx, selector)
		})
	default:
		return "", fmt.Errorf("%w: %s", recording.ErrInvalidActionType, step.ActionType)
	}
}

// withFallback tries the primary selector, then each alternative in order.
// Only a missing element moves on to the next selector; any other failure
// is final.
func (e *Engine) withFallback(ctx context.Context, step *recording.Step, action func(selector string) error) (string, error) {
	selectors := append([]string{step.ElementSelector}, step.ElementAlternatives...)

	var lastErr error
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		err := action(selector)
		if err == nil {
			return selector, nil
		}
		if !errors.Is(err, browser.ErrElementNotFound) {
			return selector, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = browser.ErrElementNotFound
	}
	return "", fmt.Errorf("all selectors exhausted: %w", lastErr)
}

func (e *Engine) captureScreenshot(ctx context.Context, playbackID uuid.UUID, step *recording.Step, adapter browser.Adapter) string {
	png, err := adapter.Screenshot(ctx)
	if err != nil {
		e.logger.Warn(ctx, "failed to capture screenshot", map[string]interface{}{
			"playback_session_id": playbackID,
			"order_index":         step.OrderIndex,
			"error":               err.Error(),
		})
		return ""
	}

	path := storage.ScreenshotPath(playbackID.String(), step.ID.String(), "after")
	if err := e.blobs.Upload(ctx, path, bytes.NewReader(png)); err != nil {
		e.logger.Warn(ctx, "failed to upload screenshot", map[string]interface{}{
			"playback_session_id": playbackID,
			"order_index":         step.OrderIndex,
			"error":               err.Error(),
		})
		return ""
	}
	return path
}
