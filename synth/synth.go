package synth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/recording"
)

// TypeMergeWindow bounds how far apart two input events on the same element
// may be, by event timestamp, and still merge into one type step.
const TypeMergeWindow = time.Second

// StepSynthesizer turns a recording's raw event stream into draft steps.
// It is driven by a single goroutine per session, so it carries no locking;
// pending state belongs to exactly one recording.
type StepSynthesizer struct {
	sessionID  uuid.UUID
	classifier Classifier
	logger     logger.Logger

	// pending is the in-progress type merge, if any.
	pending     *Draft
	pendingTime time.Time

	// lastClickAt drives click-triggered navigation absorption.
	lastClickAt time.Time
	lastURL     string
}

// New creates a synthesizer for one recording session.
func New(sessionID uuid.UUID, classifier Classifier, log logger.Logger) *StepSynthesizer {
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	return &StepSynthesizer{
		sessionID:  sessionID,
		classifier: classifier,
		logger:     log,
	}
}

// Factory returns a recording.SynthesizerFactory that builds a synthesizer
// per session sharing one classifier.
func Factory(classifier Classifier, log logger.Logger) recording.SynthesizerFactory {
	return func(sessionID uuid.UUID) recording.Synthesizer {
		return New(sessionID, classifier, log)
	}
}

// Ingest consumes one raw event. Input events on the same element within the
// merge window collapse into a single type step carrying the final value;
// anything else finalizes the pending merge first and then produces its own
// step. A navigation immediately after a click is treated as that click's
// effect, not a separate step.
func (s *StepSynthesizer) Ingest(ctx context.Context, event browser.Event) ([]*recording.Step, error) {
	draft, err := s.classifier.Classify(ctx, event)
	if err != nil {
		return nil, err
	}

	var out []*recording.Step

	if event.Type == browser.EventInput {
		if s.pending != nil {
			if s.pending.ElementSelector == draft.ElementSelector &&
				event.Timestamp.Sub(s.pendingTime) <= TypeMergeWindow {
				// Same field, still typing. The event value is the full
				// field content, so the latest one wins.
				s.pending = draft
				s.pendingTime = event.Timestamp
				return nil, nil
			}
			out = append(out, s.materialize(s.pending))
		}
		s.pending = draft
		s.pendingTime = event.Timestamp
		return out, nil
	}

	if s.pending != nil {
		out = append(out, s.materialize(s.pending))
		s.pending = nil
	}

	if event.Type == browser.EventNavigate {
		if !s.lastClickAt.IsZero() &&
			event.Timestamp.Sub(s.lastClickAt) <= TypeMergeWindow &&
			event.PageURL != s.lastURL {
			// The preceding click caused this navigation; the click step
			// already covers it.
			s.lastURL = event.PageURL
			return out, nil
		}
		s.lastURL = event.PageURL
	}

	if event.Type == browser.EventClick {
		s.lastClickAt = event.Timestamp
		s.lastURL = event.PageURL
	} else {
		s.lastClickAt = time.Time{}
	}

	out = append(out, s.materialize(draft))
	return out, nil
}

// Flush finalizes the pending merged step, if any. It is called when the
// recording completes so a trailing half-typed value still becomes a step.
func (s *StepSynthesizer) Flush(ctx context.Context) (*recording.Step, error) {
	if s.pending == nil {
		return nil, nil
	}
	step := s.materialize(s.pending)
	s.pending = nil
	return step, nil
}

// materialize converts a draft into a step bound to this session. Low
// confidence never drops a step; the score travels with it for reviewers.
func (s *StepSynthesizer) materialize(draft *Draft) *recording.Step {
	return &recording.Step{
		RecordingSessionID:  s.sessionID,
		NaturalLanguage:     draft.NaturalLanguage,
		ActionType:          draft.ActionType,
		ElementDescription:  draft.ElementDescription,
		ElementSelector:     draft.ElementSelector,
		ElementAlternatives: draft.Alternatives,
		Value:               draft.Value,
		ConfidenceScore:     draft.Confidence,
	}
}
