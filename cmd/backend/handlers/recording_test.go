package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/recording"
)

func TestRecordingHandler_Lifecycle(t *testing.T) {
	env := setupEnv(t)

	session := env.startRecording(t, "bs-lifecycle")
	assert.Equal(t, recording.StatusRecording, session.Status)
	assert.Equal(t, env.userID, session.CreatedBy)

	t.Run("get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+session.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got recording.RecordingSession
		decode(t, w, &got)
		assert.Equal(t, session.ID, got.ID)
	})

	t.Run("list by project", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings?project_id="+env.projectID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page PaginatedResponse
		decode(t, w, &page)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("pause and resume", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/pause", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/resume", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("complete", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/complete", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got recording.RecordingSession
		decode(t, w, &got)
		assert.Equal(t, recording.StatusCompleted, got.Status)
	})
}

func TestRecordingHandler_StartValidation(t *testing.T) {
	env := setupEnv(t)

	t.Run("missing name", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/recordings", StartRecordingRequest{
			ProjectID:        env.projectID.String(),
			BrowserSessionID: "bs-1",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeValidationError, resp.Code)
	})

	t.Run("busy browser session", func(t *testing.T) {
		env.startRecording(t, "bs-busy")

		w := env.do(t, http.MethodPost, "/api/v1/recordings", StartRecordingRequest{
			ProjectID:        env.projectID.String(),
			BrowserSessionID: "bs-busy",
			Name:             "Second recording",
		})
		require.Equal(t, http.StatusConflict, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeSessionBusy, resp.Code)
	})

	t.Run("unknown recording", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeSessionNotFound, resp.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecordingHandler_Steps(t *testing.T) {
	env := setupEnv(t)

	session := env.startRecording(t, "bs-steps")
	env.seedSteps(t, session.ID, "#submit", "#confirm")

	listSteps := func(t *testing.T) []*recording.Step {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+session.ID.String()+"/steps", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Items []*recording.Step `json:"items"`
		}
		decode(t, w, &page)
		return page.Items
	}

	steps := listSteps(t)
	require.Len(t, steps, 2)

	t.Run("update", func(t *testing.T) {
		text := "Click on the confirm button"
		selector := "[data-testid=confirm]"
		w := env.do(t, http.MethodPut, "/api/v1/steps/"+steps[1].ID.String(), UpdateStepRequest{
			NaturalLanguage: &text,
			ElementSelector: &selector,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var got recording.Step
		decode(t, w, &got)
		assert.Equal(t, text, got.NaturalLanguage)
		assert.Equal(t, selector, got.ElementSelector)
	})

	t.Run("update with no fields", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/v1/steps/"+steps[0].ID.String(), UpdateStepRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update with invalid action", func(t *testing.T) {
		action := "drag"
		w := env.do(t, http.MethodPut, "/api/v1/steps/"+steps[0].ID.String(), UpdateStepRequest{
			ActionType: &action,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeValidationError, resp.Code)
	})

	t.Run("verify", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/steps/"+steps[0].ID.String()+"/verify", nil)
		require.Equal(t, http.StatusOK, w.Code)

		refreshed := listSteps(t)
		assert.True(t, refreshed[0].UserVerified)
	})

	t.Run("delete renumbers", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/steps/"+steps[0].ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		remaining := listSteps(t)
		require.Len(t, remaining, 1)
		assert.Equal(t, 0, remaining[0].OrderIndex)
	})

	t.Run("delete missing step", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/steps/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecordingHandler_QualityAndSuggestions(t *testing.T) {
	env := setupEnv(t)

	session := env.startRecording(t, "bs-quality")
	env.seedSteps(t, session.ID, "#submit")

	// An input step with no value and a structural selector triggers the
	// missing-value and stable-selector suggestions.
	require.NoError(t, env.steps.Append(context.Background(), &recording.Step{
		RecordingSessionID: session.ID,
		NaturalLanguage:    "Type the email address into the email field",
		ActionType:         recording.ActionInput,
		ElementSelector:    "div > form input",
		ConfidenceScore:    0.9,
	}))

	t.Run("quality report", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+session.ID.String()+"/quality", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var report recording.QualityReport
		decode(t, w, &report)
		assert.Equal(t, 2, report.StepsAnalyzed)
	})

	t.Run("suggestions", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+session.ID.String()+"/suggestions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp SuggestionsResponse
		decode(t, w, &resp)
		require.NotEmpty(t, resp.Suggestions)
		// Ranked by score: the missing value outranks the selector advice.
		assert.Contains(t, resp.Suggestions[0].Text, "missing input value")
	})

	t.Run("unknown session", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/recordings/%s/quality", uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
