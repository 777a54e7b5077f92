package codegen

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed generated test store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new generated test record.
func (s *MySQLStore) Create(ctx context.Context, test *GeneratedTest) error {
	if err := test.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(test).Error; err != nil {
		s.logger.Error(ctx, "failed to create generated test", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": test.RecordingSessionID,
			"framework":            test.Framework,
		})
		return err
	}

	s.logger.Info(ctx, "generated test stored", map[string]interface{}{
		"generated_test_id":    test.ID,
		"recording_session_id": test.RecordingSessionID,
		"framework":            test.Framework,
	})

	return nil
}

// GetByID retrieves a generated test by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*GeneratedTest, error) {
	var test GeneratedTest
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&test).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGeneratedTestNotFound
		}
		s.logger.Error(ctx, "failed to get generated test by ID", map[string]interface{}{
			"error":             err.Error(),
			"generated_test_id": id,
		})
		return nil, err
	}

	return &test, nil
}

// GetByHash retrieves a cached generation result by its options hash.
func (s *MySQLStore) GetByHash(ctx context.Context, recordingID uuid.UUID, hash string) (*GeneratedTest, error) {
	var test GeneratedTest
	err := s.db.WithContext(ctx).
		Where("recording_session_id = ? AND options_hash = ?", recordingID, hash).
		First(&test).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGeneratedTestNotFound
		}
		s.logger.Error(ctx, "failed to get generated test by hash", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": recordingID,
		})
		return nil, err
	}

	return &test, nil
}

// ListByRecording retrieves all generated tests of a recording.
func (s *MySQLStore) ListByRecording(ctx context.Context, recordingID uuid.UUID, limit, offset int) ([]*GeneratedTest, error) {
	var tests []*GeneratedTest
	err := s.db.WithContext(ctx).
		Where("recording_session_id = ?", recordingID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tests).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list generated tests", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": recordingID,
		})
		return nil, err
	}

	return tests, nil
}

// Delete deletes a generated test by its ID.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&GeneratedTest{}, "id = ?", id)
	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete generated test", map[string]interface{}{
			"error":             result.Error.Error(),
			"generated_test_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGeneratedTestNotFound
	}
	return nil
}
