package playback

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/testutil"
)

// setupTestStore creates a test database and playback stores for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store, ResultStore) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db,
		&recording.RecordingSession{}, &recording.Step{},
		&PlaybackSession{}, &StepResult{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)
	resultStore := NewResultMySQLStore(db, log)

	return db, store, resultStore
}

// createTestPlayback creates a playback session with default values.
func createTestPlayback(recordingID uuid.UUID, browserSessionID string) *PlaybackSession {
	return &PlaybackSession{
		RecordingSessionID: recordingID,
		BrowserSessionID:   browserSessionID,
		Speed:              1.0,
		StopOnError:        true,
		StartedBy:          uuid.New(),
	}
}

// seedRecording creates a completed recording with the given steps.
func seedRecording(t *testing.T, db *gorm.DB, steps ...*recording.Step) *recording.RecordingSession {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger()

	recStore := recording.NewMySQLStore(db, log)
	stepStore := recording.NewStepMySQLStore(db, log)

	rs := &recording.RecordingSession{
		ProjectID:        uuid.New(),
		BrowserSessionID: uuid.NewString(),
		Name:             "Checkout flow",
		CreatedBy:        uuid.New(),
	}
	require.NoError(t, recStore.Create(ctx, rs))

	for _, step := range steps {
		step.RecordingSessionID = rs.ID
		require.NoError(t, stepStore.Append(ctx, step))
	}

	_, err := recStore.Complete(ctx, rs.ID)
	require.NoError(t, err)
	return rs
}

func clickStep(selector string, alternatives ...string) *recording.Step {
	return &recording.Step{
		NaturalLanguage:     "Click on the submit button",
		ActionType:          recording.ActionClick,
		ElementSelector:     selector,
		ElementAlternatives: alternatives,
		ConfidenceScore:     0.9,
	}
}

func typeStep(selector, value string) *recording.Step {
	return &recording.Step{
		NaturalLanguage: "Type into the field",
		ActionType:      recording.ActionInput,
		ElementSelector: selector,
		Value:           value,
		ConfidenceScore: 0.9,
	}
}
