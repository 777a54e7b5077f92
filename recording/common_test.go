package recording

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/testutil"
)

// setupTestStore creates a test database and recording stores for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store, StepStore) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &RecordingSession{}, &Step{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)
	stepStore := NewStepMySQLStore(db, log)

	return db, store, stepStore
}

// createTestSession creates a recording session with default values.
func createTestSession(browserSessionID string) *RecordingSession {
	return &RecordingSession{
		ProjectID:        uuid.New(),
		BrowserSessionID: browserSessionID,
		Name:             "Checkout flow",
		CreatedBy:        uuid.New(),
	}
}

// createTestStep creates a test step with default values.
func createTestStep(sessionID uuid.UUID, action ActionType, selector string) *Step {
	step := &Step{
		RecordingSessionID: sessionID,
		NaturalLanguage:    "Click on the submit button",
		ActionType:         action,
		ElementDescription: "submit button",
		ElementSelector:    selector,
		ConfidenceScore:    0.9,
	}
	if action.RequiresValue() {
		step.Value = "example"
	}
	return step
}
