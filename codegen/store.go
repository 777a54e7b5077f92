package codegen

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for generated test persistence.
type Store interface {
	// Create creates a new generated test record.
	Create(ctx context.Context, test *GeneratedTest) error

	// GetByID retrieves a generated test by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*GeneratedTest, error)

	// GetByHash retrieves a cached generation result by its options hash.
	GetByHash(ctx context.Context, recordingID uuid.UUID, hash string) (*GeneratedTest, error)

	// ListByRecording retrieves all generated tests of a recording.
	ListByRecording(ctx context.Context, recordingID uuid.UUID, limit, offset int) ([]*GeneratedTest, error)

	// Delete deletes a generated test by its ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
