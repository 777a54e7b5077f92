package playback

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for playback session persistence operations.
type Store interface {
	// Create creates a new playback session in the store.
	Create(ctx context.Context, session *PlaybackSession) error

	// GetByID retrieves a playback session by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*PlaybackSession, error)

	// ListByRecording retrieves a paginated list of playbacks of a recording.
	ListByRecording(ctx context.Context, recordingID uuid.UUID, limit, offset int) ([]*PlaybackSession, error)

	// Update updates a playback session with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// Pause transitions a playback from running to paused.
	Pause(ctx context.Context, id uuid.UUID) error

	// Resume transitions a playback from paused back to running.
	Resume(ctx context.Context, id uuid.UUID) error

	// Finish moves a playback to a terminal status.
	Finish(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error
}

// UpdateSetter is a function that updates a playback session field.
type UpdateSetter func(*PlaybackSession) error

// ResultStore defines the interface for step result persistence operations.
type ResultStore interface {
	// Create records the outcome of one replayed step.
	Create(ctx context.Context, result *StepResult) error

	// ListByPlayback retrieves all results of a playback ordered by step order.
	ListByPlayback(ctx context.Context, playbackID uuid.UUID) ([]*StepResult, error)
}
