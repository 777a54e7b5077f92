package recording

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/logger"
)

// StepMySQLStore implements the StepStore interface using GORM and MySQL.
type StepMySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewStepMySQLStore creates a new MySQL-backed test step store.
func NewStepMySQLStore(db *gorm.DB, log logger.Logger) *StepMySQLStore {
	return &StepMySQLStore{
		db:     db,
		logger: log,
	}
}

// Append appends a step to a recording session. The order index is assigned
// inside a transaction so concurrent appends stay contiguous, and the session
// step count is kept in sync.
func (s *StepMySQLStore) Append(ctx context.Context, step *Step) error {
	if err := step.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session RecordingSession
		err := tx.Where("id = ?", step.RecordingSessionID).First(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordingNotFound
			}
			return err
		}
		if session.Status.IsTerminal() {
			return ErrRecordingFinished
		}

		var count int64
		err = tx.Model(&Step{}).
			Where("recording_session_id = ?", step.RecordingSessionID).
			Count(&count).Error
		if err != nil {
			return err
		}
		step.OrderIndex = int(count)

		if err := tx.Create(step).Error; err != nil {
			return err
		}

		return tx.Model(&RecordingSession{}).
			Where("id = ?", step.RecordingSessionID).
			Update("steps_count", count+1).Error
	})
	if err != nil {
		if errors.Is(err, ErrRecordingNotFound) || errors.Is(err, ErrRecordingFinished) {
			return err
		}
		s.logger.Error(ctx, "failed to append test step", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": step.RecordingSessionID,
		})
		return err
	}

	return nil
}

// GetByID retrieves a step by its ID.
func (s *StepMySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Step, error) {
	var step Step
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&step).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNotFound
		}
		s.logger.Error(ctx, "failed to get test step by ID", map[string]interface{}{
			"error":   err.Error(),
			"step_id": id,
		})
		return nil, err
	}

	return &step, nil
}

// ListBySession retrieves all steps of a session ordered by order index.
func (s *StepMySQLStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Step, error) {
	var steps []*Step
	err := s.db.WithContext(ctx).
		Where("recording_session_id = ?", sessionID).
		Order("order_index ASC").
		Find(&steps).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test steps by session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": sessionID,
		})
		return nil, err
	}

	return steps, nil
}

// Update updates a step with the given setters. The confidence score is
// never touched by updates.
func (s *StepMySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...StepUpdateSetter) error {
	step, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(step); err != nil {
			return err
		}
	}

	if err := step.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(step).Error; err != nil {
		s.logger.Error(ctx, "failed to update test step", map[string]interface{}{
			"error":   err.Error(),
			"step_id": id,
		})
		return err
	}

	return nil
}

// Verify marks a step as user verified.
func (s *StepMySQLStore) Verify(ctx context.Context, id uuid.UUID) error {
	step, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	step.UserVerified = true

	if err := s.db.WithContext(ctx).Save(step).Error; err != nil {
		s.logger.Error(ctx, "failed to verify test step", map[string]interface{}{
			"error":   err.Error(),
			"step_id": id,
		})
		return err
	}

	s.logger.Info(ctx, "test step verified", map[string]interface{}{
		"step_id":              id,
		"recording_session_id": step.RecordingSessionID,
	})

	return nil
}

// Delete removes a step and shifts later steps down one index so the
// session's order indices stay contiguous from zero.
func (s *StepMySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var step Step
		err := tx.Where("id = ?", id).First(&step).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStepNotFound
			}
			return err
		}

		if err := tx.Delete(&Step{}, "id = ?", id).Error; err != nil {
			return err
		}

		err = tx.Model(&Step{}).
			Where("recording_session_id = ? AND order_index > ?", step.RecordingSessionID, step.OrderIndex).
			UpdateColumn("order_index", gorm.Expr("order_index - 1")).Error
		if err != nil {
			return err
		}

		return tx.Model(&RecordingSession{}).
			Where("id = ?", step.RecordingSessionID).
			UpdateColumn("steps_count", gorm.Expr("steps_count - 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrStepNotFound) {
			return err
		}
		s.logger.Error(ctx, "failed to delete test step", map[string]interface{}{
			"error":   err.Error(),
			"step_id": id,
		})
		return err
	}

	s.logger.Info(ctx, "test step deleted", map[string]interface{}{
		"step_id": id,
	})

	return nil
}

// CountBySession returns the number of steps in a session.
func (s *StepMySQLStore) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Step{}).
		Where("recording_session_id = ?", sessionID).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count test steps", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": sessionID,
		})
		return 0, err
	}

	return count, nil
}
