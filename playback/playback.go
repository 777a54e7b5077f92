package playback

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrPlaybackNotFound is returned when a playback session is not found.
	ErrPlaybackNotFound = errors.New("playback session not found")

	// ErrInvalidRecordingID is returned when recording_session_id is not set.
	ErrInvalidRecordingID = errors.New("recording_session_id is required")

	// ErrInvalidBrowserSession is returned when the browser session id is empty.
	ErrInvalidBrowserSession = errors.New("browser_session_id is required")

	// ErrInvalidSpeed is returned when the playback speed is not positive.
	ErrInvalidSpeed = errors.New("speed must be greater than zero")

	// ErrInvalidTransition is returned on a disallowed status transition.
	ErrInvalidTransition = errors.New("invalid playback status transition")

	// ErrPlaybackFinished is returned when an operation targets a playback
	// in a terminal status.
	ErrPlaybackFinished = errors.New("playback session already finished")

	// ErrSessionBusy is returned when the target browser session is already
	// running another playback.
	ErrSessionBusy = errors.New("browser session already has an active playback")

	// ErrNoSteps is returned when a recording has no steps to replay.
	ErrNoSteps = errors.New("recording has no steps to replay")
)

// Status represents the lifecycle state of a playback session. A session
// starts executing as soon as it is created, so the lifecycle begins at
// running; there is no idle state between creation and the first step.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the status is terminal.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// PlaybackSession is one replay of a recording's steps against a browser
// session. The step list is snapshotted when playback starts, so edits made
// mid-replay never change what runs.
type PlaybackSession struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	RecordingSessionID uuid.UUID  `json:"recording_session_id" gorm:"type:char(36);not null;index:idx_play_recording"`
	BrowserSessionID   string     `json:"browser_session_id" gorm:"type:varchar(128);not null;index:idx_play_browser"`
	Status             Status     `json:"status" gorm:"type:varchar(20);not null;default:'running';index:idx_play_status"`
	CurrentStepIndex   int        `json:"current_step_index" gorm:"not null;default:0"`
	TotalSteps         int        `json:"total_steps" gorm:"not null;default:0"`
	Speed              float64    `json:"speed" gorm:"not null;default:1"`
	CaptureScreenshots bool       `json:"capture_screenshots"`
	StopOnError        bool       `json:"stop_on_error"`
	StartedBy          uuid.UUID  `json:"started_by" gorm:"type:char(36);not null"`
	ErrorMessage       string     `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new playback session
func (ps *PlaybackSession) BeforeCreate(tx *gorm.DB) error {
	if ps.ID == uuid.Nil {
		ps.ID = uuid.New()
	}
	return nil
}

// Validate checks if the playback session has valid required fields.
func (ps *PlaybackSession) Validate() error {
	if ps.RecordingSessionID == uuid.Nil {
		return ErrInvalidRecordingID
	}
	if ps.BrowserSessionID == "" {
		return ErrInvalidBrowserSession
	}
	if ps.Speed <= 0 {
		return ErrInvalidSpeed
	}
	if !ps.Status.IsValid() {
		return ErrInvalidTransition
	}
	return nil
}

// Pause transitions the playback from running to paused.
func (ps *PlaybackSession) Pause() error {
	if ps.Status != StatusRunning {
		return transitionErr(ps.Status)
	}
	ps.Status = StatusPaused
	return nil
}

// Resume transitions the playback from paused back to running.
func (ps *PlaybackSession) Resume() error {
	if ps.Status != StatusPaused {
		return transitionErr(ps.Status)
	}
	ps.Status = StatusRunning
	return nil
}

// Finish moves the playback to a terminal status.
func (ps *PlaybackSession) Finish(status Status, errorMessage string) error {
	if ps.Status.IsTerminal() {
		return ErrPlaybackFinished
	}
	if !status.IsTerminal() {
		return ErrInvalidTransition
	}
	now := time.Now()
	ps.Status = status
	ps.ErrorMessage = errorMessage
	ps.CompletedAt = &now
	return nil
}

func transitionErr(current Status) error {
	if current.IsTerminal() {
		return ErrPlaybackFinished
	}
	return ErrInvalidTransition
}
