package playback

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrResultNotFound is returned when a step result is not found.
	ErrResultNotFound = errors.New("step result not found")

	// ErrInvalidResultStatus is returned when a result carries an unknown status.
	ErrInvalidResultStatus = errors.New("invalid step result status")
)

// ResultStatus is the outcome of one replayed step.
type ResultStatus string

const (
	ResultPassed  ResultStatus = "passed"
	ResultFailed  ResultStatus = "failed"
	ResultSkipped ResultStatus = "skipped"
)

// IsValid checks if the result status is valid.
func (s ResultStatus) IsValid() bool {
	switch s {
	case ResultPassed, ResultFailed, ResultSkipped:
		return true
	default:
		return false
	}
}

// StepResult is the outcome of replaying one step of a playback session.
type StepResult struct {
	ID                uuid.UUID    `json:"id" gorm:"type:char(36);primaryKey"`
	PlaybackSessionID uuid.UUID    `json:"playback_session_id" gorm:"type:char(36);not null;index:idx_result_playback"`
	StepID            uuid.UUID    `json:"step_id" gorm:"type:char(36);not null"`
	OrderIndex        int          `json:"order_index" gorm:"not null"`
	Status            ResultStatus `json:"status" gorm:"type:varchar(20);not null"`
	SelectorUsed      string       `json:"selector_used,omitempty" gorm:"type:varchar(1024)"`
	DurationMS        int64        `json:"duration_ms" gorm:"not null;default:0"`
	ErrorMessage      string       `json:"error_message,omitempty" gorm:"type:text"`
	ScreenshotPath    string       `json:"screenshot_path,omitempty" gorm:"type:varchar(512)"`
	CreatedAt         time.Time    `json:"created_at"`
}

// BeforeCreate hook to generate UUID before creating a new step result
func (r *StepResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks if the step result has valid required fields.
func (r *StepResult) Validate() error {
	if r.PlaybackSessionID == uuid.Nil {
		return errors.New("playback_session_id is required")
	}
	if !r.Status.IsValid() {
		return ErrInvalidResultStatus
	}
	return nil
}
