package codegen

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/recording"
)

// Service generates test code for recordings, caching results by options
// hash so repeated exports of unchanged steps never regenerate.
type Service struct {
	store      Store
	steps      recording.StepStore
	recordings recording.Store
	logger     logger.Logger
}

// NewService creates a code generation service.
func NewService(store Store, steps recording.StepStore, recordings recording.Store, log logger.Logger) *Service {
	return &Service{
		store:      store,
		steps:      steps,
		recordings: recordings,
		logger:     log,
	}
}

// Generate renders a recording's current steps as test code. The boolean
// reports a cache hit.
func (s *Service) Generate(ctx context.Context, recordingID uuid.UUID, opts Options, userID uuid.UUID) (*GeneratedTest, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	if _, err := s.recordings.GetByID(ctx, recordingID); err != nil {
		return nil, false, err
	}

	steps, err := s.steps.ListBySession(ctx, recordingID)
	if err != nil {
		return nil, false, err
	}

	hash := OptionsHash(steps, opts)

	cached, err := s.store.GetByHash(ctx, recordingID, hash)
	if err == nil {
		s.logger.Debug(ctx, "generation cache hit", map[string]interface{}{
			"recording_session_id": recordingID,
			"framework":            opts.Framework,
		})
		return cached, true, nil
	}
	if !errors.Is(err, ErrGeneratedTestNotFound) {
		return nil, false, err
	}

	code, fileName, err := Generate(steps, opts)
	if err != nil {
		return nil, false, err
	}

	test := &GeneratedTest{
		RecordingSessionID: recordingID,
		Framework:          opts.Framework,
		OptionsHash:        hash,
		FileName:           fileName,
		Code:               code,
		StepCount:          len(steps),
		GeneratedBy:        userID,
	}
	if err := s.store.Create(ctx, test); err != nil {
		return nil, false, err
	}

	return test, false, nil
}
