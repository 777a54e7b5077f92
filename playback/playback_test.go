package playback

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.True(t, StatusRunning.IsValid())
	assert.True(t, StatusPaused.IsValid())
	assert.False(t, Status("idle").IsValid())

	assert.False(t, StatusRunning.IsTerminal())
	assert.False(t, StatusPaused.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestPlaybackSession_Validate(t *testing.T) {
	t.Run("valid session", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusRunning
		assert.NoError(t, ps.Validate())
	})

	t.Run("missing recording", func(t *testing.T) {
		ps := createTestPlayback(uuid.Nil, "browser-1")
		ps.Status = StatusRunning
		assert.ErrorIs(t, ps.Validate(), ErrInvalidRecordingID)
	})

	t.Run("missing browser session", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "")
		ps.Status = StatusRunning
		assert.ErrorIs(t, ps.Validate(), ErrInvalidBrowserSession)
	})

	t.Run("non-positive speed", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusRunning
		ps.Speed = 0
		assert.ErrorIs(t, ps.Validate(), ErrInvalidSpeed)
	})
}

func TestPlaybackSession_Transitions(t *testing.T) {
	t.Run("pause and resume", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusRunning

		require.NoError(t, ps.Pause())
		assert.Equal(t, StatusPaused, ps.Status)

		require.NoError(t, ps.Resume())
		assert.Equal(t, StatusRunning, ps.Status)
	})

	t.Run("finish sets completion time", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusRunning

		require.NoError(t, ps.Finish(StatusFailed, "element not found"))
		assert.Equal(t, StatusFailed, ps.Status)
		assert.Equal(t, "element not found", ps.ErrorMessage)
		assert.NotNil(t, ps.CompletedAt)
	})

	t.Run("finish requires a terminal status", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusRunning
		assert.ErrorIs(t, ps.Finish(StatusPaused, ""), ErrInvalidTransition)
	})

	t.Run("terminal playback rejects transitions", func(t *testing.T) {
		ps := createTestPlayback(uuid.New(), "browser-1")
		ps.Status = StatusCompleted

		assert.ErrorIs(t, ps.Pause(), ErrPlaybackFinished)
		assert.ErrorIs(t, ps.Resume(), ErrPlaybackFinished)
		assert.ErrorIs(t, ps.Finish(StatusFailed, ""), ErrPlaybackFinished)
	})
}

func TestSetSpeed(t *testing.T) {
	ps := createTestPlayback(uuid.New(), "browser-1")

	require.NoError(t, SetSpeed(2.0)(ps))
	assert.Equal(t, 2.0, ps.Speed)

	assert.ErrorIs(t, SetSpeed(0)(ps), ErrInvalidSpeed)
	assert.ErrorIs(t, SetSpeed(-1)(ps), ErrInvalidSpeed)
}
