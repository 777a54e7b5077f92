package recording

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrStepNotFound is returned when a test step is not found.
	ErrStepNotFound = errors.New("test step not found")

	// ErrInvalidActionType is returned when a step carries an unknown action type.
	ErrInvalidActionType = errors.New("invalid action type")

	// ErrInvalidSelector is returned when the primary selector is empty.
	ErrInvalidSelector = errors.New("element selector is required")

	// ErrInvalidRecordingID is returned when recording_session_id is not set.
	ErrInvalidRecordingID = errors.New("recording_session_id is required")
)

// ActionType classifies what a test step does during playback.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionInput    ActionType = "type"
	ActionVerify   ActionType = "verify"
	ActionNavigate ActionType = "navigate"
	ActionWait     ActionType = "wait"
	ActionSelect   ActionType = "select"
	ActionScroll   ActionType = "scroll"
	ActionHover    ActionType = "hover"
)

// IsValid checks if the action type is valid.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionClick, ActionInput, ActionVerify, ActionNavigate, ActionWait, ActionSelect, ActionScroll, ActionHover:
		return true
	default:
		return false
	}
}

// RequiresValue reports whether steps of this action type must carry a value.
func (a ActionType) RequiresValue() bool {
	return a == ActionInput || a == ActionSelect
}

// Selectors is an ordered list of fallback selectors stored as JSON.
type Selectors []string

// Value implements the driver.Valuer interface for database storage.
func (s Selectors) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for database retrieval.
func (s *Selectors) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan Selectors: not a byte slice")
	}
	return json.Unmarshal(bytes, s)
}

// Step is one synthesized, human-verifiable test step. Steps are created by
// synthesis, edited and verified by users, and read-only to playback and
// code generation.
type Step struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	RecordingSessionID  uuid.UUID  `json:"recording_session_id" gorm:"type:char(36);not null;index:idx_step_session,priority:1"`
	OrderIndex          int        `json:"order_index" gorm:"not null;index:idx_step_session,priority:2"`
	NaturalLanguage     string     `json:"natural_language" gorm:"type:text;not null"`
	ActionType          ActionType `json:"action_type" gorm:"type:varchar(20);not null"`
	ElementDescription  string     `json:"element_description" gorm:"type:varchar(512)"`
	ElementSelector     string     `json:"element_selector" gorm:"type:varchar(1024);not null"`
	ElementAlternatives Selectors  `json:"element_alternatives" gorm:"type:json"`
	Value               string     `json:"value,omitempty" gorm:"type:text"`
	ConfidenceScore     float64    `json:"confidence_score" gorm:"not null;default:0"`
	UserVerified        bool       `json:"user_verified" gorm:"not null;default:false"`
	ScreenshotBefore    string     `json:"screenshot_before,omitempty" gorm:"type:varchar(512)"`
	ScreenshotAfter     string     `json:"screenshot_after,omitempty" gorm:"type:varchar(512)"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new step
func (s *Step) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Validate checks if the step has valid required fields.
func (s *Step) Validate() error {
	if s.RecordingSessionID == uuid.Nil {
		return ErrInvalidRecordingID
	}
	if !s.ActionType.IsValid() {
		return ErrInvalidActionType
	}
	// wait and scroll steps act on the page, not an element
	if s.ElementSelector == "" && s.ActionType != ActionWait && s.ActionType != ActionScroll && s.ActionType != ActionNavigate {
		return ErrInvalidSelector
	}
	if s.ConfidenceScore < 0 || s.ConfidenceScore > 1 {
		return errors.New("confidence_score must be within [0,1]")
	}
	return nil
}
