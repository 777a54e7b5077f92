package recording

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRecordingNotFound is returned when a recording session is not found.
	ErrRecordingNotFound = errors.New("recording session not found")

	// ErrInvalidName is returned when the session name is empty.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidProjectID is returned when project_id is not set.
	ErrInvalidProjectID = errors.New("project_id is required")

	// ErrInvalidBrowserSession is returned when the browser session id is empty.
	ErrInvalidBrowserSession = errors.New("browser_session_id is required")

	// ErrInvalidTransition is returned on a disallowed status transition.
	ErrInvalidTransition = errors.New("invalid recording status transition")

	// ErrRecordingFinished is returned when an operation targets a session in
	// a terminal status.
	ErrRecordingFinished = errors.New("recording session already finished")

	// ErrSessionBusy is returned when the target browser session is already
	// owned by another active recording.
	ErrSessionBusy = errors.New("browser session already has an active recording")
)

// Status represents the lifecycle state of a recording session.
type Status string

const (
	StatusRecording Status = "recording"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusRecording, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the status is terminal. No steps may be appended to a
// session in a terminal status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RecordingSession is one bounded period of browser interaction capture.
type RecordingSession struct {
	ID                uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID         uuid.UUID  `json:"project_id" gorm:"type:char(36);not null;index:idx_rec_project_id"`
	BrowserSessionID  string     `json:"browser_session_id" gorm:"type:varchar(128);not null;index:idx_rec_browser_session"`
	Name              string     `json:"name" gorm:"not null"`
	Status            Status     `json:"status" gorm:"type:varchar(20);not null;default:'recording';index:idx_rec_status"`
	AutoGenerateSteps bool       `json:"auto_generate_steps" gorm:"default:true"`
	RealTimePreview   bool       `json:"real_time_preview" gorm:"default:true"`
	CurrentURL        string     `json:"current_url" gorm:"type:varchar(2048)"`
	StepsCount        int        `json:"steps_count" gorm:"not null;default:0"`
	DurationSeconds   int        `json:"duration_seconds" gorm:"not null;default:0"`
	CreatedBy         uuid.UUID  `json:"created_by" gorm:"type:char(36);not null;index:idx_rec_created_by"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new recording session
func (rs *RecordingSession) BeforeCreate(tx *gorm.DB) error {
	if rs.ID == uuid.Nil {
		rs.ID = uuid.New()
	}
	return nil
}

// Validate checks if the recording session has valid required fields.
func (rs *RecordingSession) Validate() error {
	if rs.Name == "" {
		return ErrInvalidName
	}
	if rs.ProjectID == uuid.Nil {
		return ErrInvalidProjectID
	}
	if rs.BrowserSessionID == "" {
		return ErrInvalidBrowserSession
	}
	if !rs.Status.IsValid() {
		return ErrInvalidTransition
	}
	return nil
}

// Pause transitions the session from recording to paused.
func (rs *RecordingSession) Pause() error {
	if rs.Status != StatusRecording {
		return transitionErr(rs.Status)
	}
	rs.Status = StatusPaused
	return nil
}

// Resume transitions the session from paused back to recording.
func (rs *RecordingSession) Resume() error {
	if rs.Status != StatusPaused {
		return transitionErr(rs.Status)
	}
	rs.Status = StatusRecording
	return nil
}

// Complete transitions the session to completed and freezes its duration.
func (rs *RecordingSession) Complete() error {
	if rs.Status.IsTerminal() {
		return ErrRecordingFinished
	}
	now := time.Now()
	rs.Status = StatusCompleted
	rs.CompletedAt = &now
	rs.DurationSeconds = int(now.Sub(rs.StartedAt).Seconds())
	return nil
}

// Cancel transitions the session to cancelled. Already-persisted steps are
// kept; they remain inspectable and exportable.
func (rs *RecordingSession) Cancel() error {
	if rs.Status.IsTerminal() {
		return ErrRecordingFinished
	}
	now := time.Now()
	rs.Status = StatusCancelled
	rs.CompletedAt = &now
	rs.DurationSeconds = int(now.Sub(rs.StartedAt).Seconds())
	return nil
}

// Fail transitions the session to failed.
func (rs *RecordingSession) Fail() error {
	if rs.Status.IsTerminal() {
		return ErrRecordingFinished
	}
	now := time.Now()
	rs.Status = StatusFailed
	rs.CompletedAt = &now
	rs.DurationSeconds = int(now.Sub(rs.StartedAt).Seconds())
	return nil
}

func transitionErr(current Status) error {
	if current.IsTerminal() {
		return ErrRecordingFinished
	}
	return ErrInvalidTransition
}
