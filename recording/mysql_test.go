package recording

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLStore_Create(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create recording session", func(t *testing.T) {
		rs := createTestSession("browser-create-1")
		err := store.Create(ctx, rs)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, rs.ID)
		assert.Equal(t, StatusRecording, rs.Status)
	})

	t.Run("started_at is stamped on create", func(t *testing.T) {
		rs := createTestSession("browser-create-5")
		require.NoError(t, store.Create(ctx, rs))
		assert.False(t, rs.StartedAt.IsZero())
		assert.WithinDuration(t, time.Now(), rs.StartedAt, time.Minute)

		retrieved, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.False(t, retrieved.StartedAt.IsZero())
	})

	t.Run("busy browser session is rejected", func(t *testing.T) {
		first := createTestSession("browser-create-2")
		require.NoError(t, store.Create(ctx, first))

		second := createTestSession("browser-create-2")
		err := store.Create(ctx, second)
		assert.ErrorIs(t, err, ErrSessionBusy)
	})

	t.Run("browser session is reusable after completion", func(t *testing.T) {
		first := createTestSession("browser-create-3")
		require.NoError(t, store.Create(ctx, first))
		_, err := store.Complete(ctx, first.ID)
		require.NoError(t, err)

		second := createTestSession("browser-create-3")
		assert.NoError(t, store.Create(ctx, second))
	})

	t.Run("invalid session returns error", func(t *testing.T) {
		rs := createTestSession("browser-create-4")
		rs.Name = ""
		err := store.Create(ctx, rs)
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestMySQLStore_GetByID(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("retrieve existing session", func(t *testing.T) {
		rs := createTestSession("browser-get-1")
		require.NoError(t, store.Create(ctx, rs))

		retrieved, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, rs.ID, retrieved.ID)
		assert.Equal(t, rs.Name, retrieved.Name)
	})

	t.Run("non-existent session returns error", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRecordingNotFound)
	})
}

func TestMySQLStore_GetActiveByBrowserSession(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("finds active session", func(t *testing.T) {
		rs := createTestSession("browser-active-1")
		require.NoError(t, store.Create(ctx, rs))

		found, err := store.GetActiveByBrowserSession(ctx, "browser-active-1")
		require.NoError(t, err)
		assert.Equal(t, rs.ID, found.ID)
	})

	t.Run("completed session is not active", func(t *testing.T) {
		rs := createTestSession("browser-active-2")
		require.NoError(t, store.Create(ctx, rs))
		_, err := store.Complete(ctx, rs.ID)
		require.NoError(t, err)

		_, err = store.GetActiveByBrowserSession(ctx, "browser-active-2")
		assert.ErrorIs(t, err, ErrRecordingNotFound)
	})
}

func TestMySQLStore_Update(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("update name and url", func(t *testing.T) {
		rs := createTestSession("browser-update-1")
		require.NoError(t, store.Create(ctx, rs))

		err := store.Update(ctx, rs.ID,
			SetName("Login flow"),
			SetCurrentURL("https://shop.example.com/login"))
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, "Login flow", retrieved.Name)
		assert.Equal(t, "https://shop.example.com/login", retrieved.CurrentURL)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		rs := createTestSession("browser-update-2")
		require.NoError(t, store.Create(ctx, rs))

		err := store.Update(ctx, rs.ID, SetName(""))
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("update non-existent returns error", func(t *testing.T) {
		err := store.Update(ctx, uuid.New(), SetName("New name"))
		assert.ErrorIs(t, err, ErrRecordingNotFound)
	})
}

func TestMySQLStore_ListByProject(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	projectID := uuid.New()
	for i := 0; i < 5; i++ {
		rs := createTestSession(uuid.NewString())
		rs.ProjectID = projectID
		require.NoError(t, store.Create(ctx, rs))
	}

	t.Run("list sessions for project", func(t *testing.T) {
		sessions, err := store.ListByProject(ctx, projectID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 5)
	})

	t.Run("list with pagination", func(t *testing.T) {
		page, err := store.ListByProject(ctx, projectID, 2, 0)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		rest, err := store.ListByProject(ctx, projectID, 10, 4)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("other project is empty", func(t *testing.T) {
		sessions, err := store.ListByProject(ctx, uuid.New(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestMySQLStore_Lifecycle(t *testing.T) {
	_, store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("pause and resume", func(t *testing.T) {
		rs := createTestSession("browser-life-1")
		require.NoError(t, store.Create(ctx, rs))

		require.NoError(t, store.Pause(ctx, rs.ID))
		paused, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPaused, paused.Status)

		require.NoError(t, store.Resume(ctx, rs.ID))
		resumed, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRecording, resumed.Status)
	})

	t.Run("complete is idempotent", func(t *testing.T) {
		rs := createTestSession("browser-life-2")
		require.NoError(t, store.Create(ctx, rs))

		first, err := store.Complete(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, first.Status)

		second, err := store.Complete(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, second.Status)
		assert.Equal(t, first.DurationSeconds, second.DurationSeconds)
	})

	t.Run("duration is measured from started_at", func(t *testing.T) {
		rs := createTestSession("browser-life-5")
		require.NoError(t, store.Create(ctx, rs))

		completed, err := store.Complete(ctx, rs.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, completed.DurationSeconds, 0)
		assert.Less(t, completed.DurationSeconds, 60)
	})

	t.Run("complete after cancel fails", func(t *testing.T) {
		rs := createTestSession("browser-life-3")
		require.NoError(t, store.Create(ctx, rs))

		_, err := store.Cancel(ctx, rs.ID)
		require.NoError(t, err)

		_, err = store.Complete(ctx, rs.ID)
		assert.ErrorIs(t, err, ErrRecordingFinished)
	})

	t.Run("fail from recording", func(t *testing.T) {
		rs := createTestSession("browser-life-4")
		require.NoError(t, store.Create(ctx, rs))

		require.NoError(t, store.Fail(ctx, rs.ID))
		failed, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, failed.Status)
		assert.NotNil(t, failed.CompletedAt)
	})
}
