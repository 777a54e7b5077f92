package recording

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSessionWithSteps(t *testing.T, store Store, steps StepStore, count int) *RecordingSession {
	t.Helper()
	ctx := context.Background()

	rs := createTestSession(uuid.NewString())
	require.NoError(t, store.Create(ctx, rs))

	for i := 0; i < count; i++ {
		step := createTestStep(rs.ID, ActionClick, "#submit")
		require.NoError(t, steps.Append(ctx, step))
	}
	return rs
}

func TestStepMySQLStore_Append(t *testing.T) {
	_, store, steps := setupTestStore(t)
	ctx := context.Background()

	t.Run("assigns contiguous order indices", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 3)

		list, err := steps.ListBySession(ctx, rs.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, step := range list {
			assert.Equal(t, i, step.OrderIndex)
		}
	})

	t.Run("keeps session step count in sync", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 2)

		session, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, session.StepsCount)
	})

	t.Run("append to unknown session fails", func(t *testing.T) {
		step := createTestStep(uuid.New(), ActionClick, "#submit")
		assert.ErrorIs(t, steps.Append(ctx, step), ErrRecordingNotFound)
	})

	t.Run("append to completed session fails", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 1)
		_, err := store.Complete(ctx, rs.ID)
		require.NoError(t, err)

		step := createTestStep(rs.ID, ActionClick, "#submit")
		assert.ErrorIs(t, steps.Append(ctx, step), ErrRecordingFinished)
	})
}

func TestStepMySQLStore_Update(t *testing.T) {
	_, store, steps := setupTestStore(t)
	ctx := context.Background()

	t.Run("edit fields without touching confidence", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 1)
		list, err := steps.ListBySession(ctx, rs.ID)
		require.NoError(t, err)
		original := list[0]

		err = steps.Update(ctx, original.ID,
			SetNaturalLanguage("Click on the checkout button"),
			SetElementSelector("[data-testid=checkout]"),
			SetElementAlternatives(Selectors{"#checkout"}))
		require.NoError(t, err)

		updated, err := steps.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, "Click on the checkout button", updated.NaturalLanguage)
		assert.Equal(t, "[data-testid=checkout]", updated.ElementSelector)
		assert.Equal(t, Selectors{"#checkout"}, updated.ElementAlternatives)
		assert.Equal(t, original.ConfidenceScore, updated.ConfidenceScore)
	})

	t.Run("invalid action type is rejected", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 1)
		list, err := steps.ListBySession(ctx, rs.ID)
		require.NoError(t, err)

		err = steps.Update(ctx, list[0].ID, SetActionType("drag"))
		assert.ErrorIs(t, err, ErrInvalidActionType)
	})

	t.Run("update non-existent step fails", func(t *testing.T) {
		err := steps.Update(ctx, uuid.New(), SetValue("x"))
		assert.ErrorIs(t, err, ErrStepNotFound)
	})
}

func TestStepMySQLStore_Verify(t *testing.T) {
	_, store, steps := setupTestStore(t)
	ctx := context.Background()

	rs := createSessionWithSteps(t, store, steps, 1)
	list, err := steps.ListBySession(ctx, rs.ID)
	require.NoError(t, err)

	require.NoError(t, steps.Verify(ctx, list[0].ID))

	verified, err := steps.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, verified.UserVerified)
}

func TestStepMySQLStore_Delete(t *testing.T) {
	_, store, steps := setupTestStore(t)
	ctx := context.Background()

	t.Run("renumbers remaining steps", func(t *testing.T) {
		rs := createSessionWithSteps(t, store, steps, 4)
		list, err := steps.ListBySession(ctx, rs.ID)
		require.NoError(t, err)

		// Remove the second step; the two behind it shift down.
		require.NoError(t, steps.Delete(ctx, list[1].ID))

		remaining, err := steps.ListBySession(ctx, rs.ID)
		require.NoError(t, err)
		require.Len(t, remaining, 3)
		for i, step := range remaining {
			assert.Equal(t, i, step.OrderIndex)
		}
		assert.Equal(t, list[0].ID, remaining[0].ID)
		assert.Equal(t, list[2].ID, remaining[1].ID)
		assert.Equal(t, list[3].ID, remaining[2].ID)

		session, err := store.GetByID(ctx, rs.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, session.StepsCount)
	})

	t.Run("delete non-existent step fails", func(t *testing.T) {
		assert.ErrorIs(t, steps.Delete(ctx, uuid.New()), ErrStepNotFound)
	})
}

func TestStepMySQLStore_CountBySession(t *testing.T) {
	_, store, steps := setupTestStore(t)
	ctx := context.Background()

	rs := createSessionWithSteps(t, store, steps, 3)
	count, err := steps.CountBySession(ctx, rs.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
