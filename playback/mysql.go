package playback

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

// NewMySQLStore creates a new MySQL-backed playback session store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new playback session in the database.
func (s *MySQLStore) Create(ctx context.Context, session *PlaybackSession) error {
	if session.Status == "" {
		session.Status = StatusRunning
	}
	if session.Speed == 0 {
		session.Speed = 1.0
	}

	if err := session.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		s.logger.Error(ctx, "failed to create playback session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": session.RecordingSessionID,
		})
		return err
	}

	s.logger.Info(ctx, "playback session created", map[string]interface{}{
		"playback_session_id":  session.ID,
		"recording_session_id": session.RecordingSessionID,
		"total_steps":          session.TotalSteps,
	})

	return nil
}

// GetByID retrieves a playback session by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*PlaybackSession, error) {
	var session PlaybackSession
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaybackNotFound
		}
		s.logger.Error(ctx, "failed to get playback session by ID", map[string]interface{}{
			"error":               err.Error(),
			"playback_session_id": id,
		})
		return nil, err
	}

	return &session, nil
}

// ListByRecording retrieves a paginated list of playbacks of a recording.
func (s *MySQLStore) ListByRecording(ctx context.Context, recordingID uuid.UUID, limit, offset int) ([]*PlaybackSession, error) {
	var sessions []*PlaybackSession
	err := s.db.WithContext(ctx).
		Where("recording_session_id = ?", recordingID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list playback sessions", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": recordingID,
		})
		return nil, err
	}

	return sessions, nil
}

// Update updates a playback session with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(session); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		s.logger.Error(ctx, "failed to update playback session", map[string]interface{}{
			"error":               err.Error(),
			"playback_session_id": id,
		})
		return err
	}

	return nil
}

// Pause transitions a playback from running to paused.
func (s *MySQLStore) Pause(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "pause", func(ps *PlaybackSession) error {
		return ps.Pause()
	})
}

// Resume transitions a playback from paused back to running.
func (s *MySQLStore) Resume(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "resume", func(ps *PlaybackSession) error {
		return ps.Resume()
	})
}

// Finish moves a playback to a terminal status.
func (s *MySQLStore) Finish(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error {
	return s.transition(ctx, id, string(status), func(ps *PlaybackSession) error {
		return ps.Finish(status, errorMessage)
	})
}

func (s *MySQLStore) transition(ctx context.Context, id uuid.UUID, name string, apply func(*PlaybackSession) error) error {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := apply(session); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		s.logger.Error(ctx, "failed to transition playback session", map[string]interface{}{
			"error":               err.Error(),
			"playback_session_id": id,
			"transition":          name,
		})
		return err
	}

	s.logger.Info(ctx, "playback session transitioned", map[string]interface{}{
		"playback_session_id": id,
		"transition":          name,
		"status":              session.Status,
	})

	return nil
}

// ResultMySQLStore implements the ResultStore interface using GORM and MySQL.
type ResultMySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewResultMySQLStore creates a new MySQL-backed step result store.
func NewResultMySQLStore(db *gorm.DB, log logger.Logger) *ResultMySQLStore {
	return &ResultMySQLStore{
		db:     db,
		logger: log,
	}
}

// Create records the outcome of one replayed step.
func (s *ResultMySQLStore) Create(ctx context.Context, result *StepResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(result).Error; err != nil {
		s.logger.Error(ctx, "failed to create step result", map[string]interface{}{
			"error":               err.Error(),
			"playback_session_id": result.PlaybackSessionID,
			"order_index":         result.OrderIndex,
		})
		return err
	}

	return nil
}

// ListByPlayback retrieves all results of a playback ordered by step order.
func (s *ResultMySQLStore) ListByPlayback(ctx context.Context, playbackID uuid.UUID) ([]*StepResult, error) {
	var results []*StepResult
	err := s.db.WithContext(ctx).
		Where("playback_session_id = ?", playbackID).
		Order("order_index ASC").
		Find(&results).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list step results", map[string]interface{}{
			"error":               err.Error(),
			"playback_session_id": playbackID,
		})
		return nil, err
	}

	return results, nil
}
