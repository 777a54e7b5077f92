package recording

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for recording session persistence operations.
type Store interface {
	// Create creates a new recording session in the store.
	Create(ctx context.Context, session *RecordingSession) error

	// GetByID retrieves a recording session by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*RecordingSession, error)

	// GetActiveByBrowserSession retrieves the non-terminal recording session
	// bound to a browser session, if any.
	GetActiveByBrowserSession(ctx context.Context, browserSessionID string) (*RecordingSession, error)

	// Update updates a recording session with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// ListByProject retrieves a paginated list of recording sessions for a project.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*RecordingSession, error)

	// Pause transitions a session from recording to paused.
	Pause(ctx context.Context, id uuid.UUID) error

	// Resume transitions a session from paused back to recording.
	Resume(ctx context.Context, id uuid.UUID) error

	// Complete transitions a session to completed and freezes its duration.
	// Completing an already-completed session is a no-op.
	Complete(ctx context.Context, id uuid.UUID) (*RecordingSession, error)

	// Cancel transitions a session to cancelled. Persisted steps are kept.
	Cancel(ctx context.Context, id uuid.UUID) (*RecordingSession, error)

	// Fail transitions a session to failed.
	Fail(ctx context.Context, id uuid.UUID) error
}

// UpdateSetter is a function that updates a recording session field.
type UpdateSetter func(*RecordingSession) error

// StepStore defines the interface for test step persistence operations.
type StepStore interface {
	// Append appends a step to a recording session, assigning the next
	// contiguous order index.
	Append(ctx context.Context, step *Step) error

	// GetByID retrieves a step by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Step, error)

	// ListBySession retrieves all steps of a session ordered by order index.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Step, error)

	// Update updates a step with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...StepUpdateSetter) error

	// Verify marks a step as user verified.
	Verify(ctx context.Context, id uuid.UUID) error

	// Delete removes a step and renumbers the remaining steps of its session
	// so order indices stay contiguous from zero.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountBySession returns the number of steps in a session.
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

// StepUpdateSetter is a function that updates a test step field.
type StepUpdateSetter func(*Step) error
