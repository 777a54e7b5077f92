package recording

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed recording session store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new recording session in the database. It fails with
// ErrSessionBusy if another active recording already owns the browser session.
func (s *MySQLStore) Create(ctx context.Context, session *RecordingSession) error {
	if session.Status == "" {
		session.Status = StatusRecording
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	if err := session.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&RecordingSession{}).
			Where("browser_session_id = ? AND status IN ?", session.BrowserSessionID,
				[]Status{StatusRecording, StatusPaused}).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrSessionBusy
		}
		return tx.Create(session).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionBusy) {
			return err
		}
		s.logger.Error(ctx, "failed to create recording session", map[string]interface{}{
			"error":              err.Error(),
			"project_id":         session.ProjectID,
			"browser_session_id": session.BrowserSessionID,
		})
		return err
	}

	s.logger.Info(ctx, "recording session created", map[string]interface{}{
		"recording_session_id": session.ID,
		"project_id":           session.ProjectID,
	})

	return nil
}

// GetByID retrieves a recording session by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*RecordingSession, error) {
	var session RecordingSession
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		s.logger.Error(ctx, "failed to get recording session by ID", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": id,
		})
		return nil, err
	}

	return &session, nil
}

// GetActiveByBrowserSession retrieves the non-terminal recording session bound
// to a browser session, if any.
func (s *MySQLStore) GetActiveByBrowserSession(ctx context.Context, browserSessionID string) (*RecordingSession, error) {
	var session RecordingSession
	err := s.db.WithContext(ctx).
		Where("browser_session_id = ? AND status IN ?", browserSessionID,
			[]Status{StatusRecording, StatusPaused}).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		s.logger.Error(ctx, "failed to get active recording by browser session", map[string]interface{}{
			"error":              err.Error(),
			"browser_session_id": browserSessionID,
		})
		return nil, err
	}

	return &session, nil
}

// Update updates a recording session with the given setters.
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
		s.logger.Error(ctx, "failed to update recording session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": id,
		})
		return err
	}

	return nil
}

// ListByProject retrieves a paginated list of recording sessions for a project.
func (s *MySQLStore) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*RecordingSession, error) {
	var sessions []*RecordingSession
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list recording sessions by project", map[string]interface{}{
			"error":      err.Error(),
			"project_id": projectID,
			"limit":      limit,
			"offset":     offset,
		})
		return nil, err
	}

	return sessions, nil
}

// Pause transitions a session from recording to paused.
func (s *MySQLStore) Pause(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "pause", func(rs *RecordingSession) error {
		return rs.Pause()
	})
}

// Resume transitions a session from paused back to recording.
func (s *MySQLStore) Resume(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "resume", func(rs *RecordingSession) error {
		return rs.Resume()
	})
}

// Complete transitions a session to completed and freezes its duration.
// Completing an already-completed session returns the session unchanged.
func (s *MySQLStore) Complete(ctx context.Context, id uuid.UUID) (*RecordingSession, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status == StatusCompleted {
		return session, nil
	}

	if err := session.Complete(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		s.logger.Error(ctx, "failed to complete recording session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": id,
		})
		return nil, err
	}

	s.logger.Info(ctx, "recording session completed", map[string]interface{}{
		"recording_session_id": id,
		"duration_seconds":     session.DurationSeconds,
	})

	return session, nil
}

// Cancel transitions a session to cancelled. Persisted steps are kept.
func (s *MySQLStore) Cancel(ctx context.Context, id uuid.UUID) (*RecordingSession, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := session.Cancel(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		s.logger.Error(ctx, "failed to cancel recording session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": id,
		})
		return nil, err
	}

	s.logger.Info(ctx, "recording session cancelled", map[string]interface{}{
		"recording_session_id": id,
	})

	return session, nil
}

// Fail transitions a session to failed.
func (s *MySQLStore) Fail(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "fail", func(rs *RecordingSession) error {
		return rs.Fail()
	})
}

func (s *MySQLStore) transition(ctx context.Context, id uuid.UUID, name string, apply func(*RecordingSession) error) error {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := apply(session); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		s.logger.Error(ctx, "failed to transition recording session", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": id,
			"transition":           name,
		})
		return err
	}

	s.logger.Info(ctx, "recording session transitioned", map[string]interface{}{
		"recording_session_id": id,
		"transition":           name,
		"status":               session.Status,
	})

	return nil
}
