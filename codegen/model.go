package codegen

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrGeneratedTestNotFound is returned when a generated test is not found.
	ErrGeneratedTestNotFound = errors.New("generated test not found")

	// ErrInvalidRecordingID is returned when recording_session_id is not set.
	ErrInvalidRecordingID = errors.New("recording_session_id is required")

	// ErrInvalidFramework is returned when the target framework is invalid.
	ErrInvalidFramework = errors.New("invalid framework")

	// ErrInvalidGeneratedBy is returned when generated_by is not set.
	ErrInvalidGeneratedBy = errors.New("generated_by is required")
)

// Framework is a code generation target.
type Framework string

const (
	// FrameworkPlaywrightTest targets @playwright/test in TypeScript.
	FrameworkPlaywrightTest Framework = "playwright-test"

	// FrameworkPlaywright targets Playwright's sync API in Python.
	FrameworkPlaywright Framework = "playwright"

	// FrameworkSelenium targets Selenium WebDriver in Python.
	FrameworkSelenium Framework = "selenium"
)

// IsValid checks if the framework is valid.
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkPlaywrightTest, FrameworkPlaywright, FrameworkSelenium:
		return true
	default:
		return false
	}
}

// Options configures one code generation run. The same steps with the same
// options always produce byte-identical output.
type Options struct {
	Framework       Framework `json:"framework"`
	TestName        string    `json:"test_name"`
	BaseURL         string    `json:"base_url,omitempty"`
	IncludeComments bool      `json:"include_comments"`
}

// Validate checks the options.
func (o *Options) Validate() error {
	if !o.Framework.IsValid() {
		return ErrInvalidFramework
	}
	if o.TestName == "" {
		return errors.New("test_name is required")
	}
	return nil
}

// GeneratedTest is one cached code generation result. The options hash keys
// the cache: identical steps and options hit the stored copy.
type GeneratedTest struct {
	ID                 uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RecordingSessionID uuid.UUID `json:"recording_session_id" gorm:"type:char(36);not null;index:idx_gen_recording"`
	Framework          Framework `json:"framework" gorm:"type:varchar(30);not null"`
	OptionsHash        string    `json:"options_hash" gorm:"type:char(64);not null;index:idx_gen_hash"`
	FileName           string    `json:"file_name" gorm:"type:varchar(255);not null"`
	Code               string    `json:"code" gorm:"type:mediumtext;not null"`
	StepCount          int       `json:"step_count" gorm:"not null;default:0"`
	GeneratedBy        uuid.UUID `json:"generated_by" gorm:"type:char(36);not null"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new generated test
func (gt *GeneratedTest) BeforeCreate(tx *gorm.DB) error {
	if gt.ID == uuid.Nil {
		gt.ID = uuid.New()
	}
	return nil
}

// Validate checks if the generated test has valid required fields.
func (gt *GeneratedTest) Validate() error {
	if gt.RecordingSessionID == uuid.Nil {
		return ErrInvalidRecordingID
	}
	if !gt.Framework.IsValid() {
		return ErrInvalidFramework
	}
	if gt.GeneratedBy == uuid.Nil {
		return ErrInvalidGeneratedBy
	}
	if gt.OptionsHash == "" {
		return errors.New("options_hash is required")
	}
	return nil
}
