package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/playback"
)

func TestPlaybackHandler_ReplayFlow(t *testing.T) {
	env := setupEnv(t)

	session := env.startRecording(t, "bs-replay")
	env.seedSteps(t, session.ID, "#submit", "#confirm")
	env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/complete", nil)

	w := env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/playbacks", StartPlaybackRequest{
		BrowserSessionID: "bs-replay",
		Speed:            50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var pb playback.PlaybackSession
	decode(t, w, &pb)
	assert.Equal(t, 2, pb.TotalSteps)
	assert.Equal(t, env.userID, pb.StartedBy)

	env.engine.Wait(pb.ID)

	t.Run("get finished playback", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/playbacks/"+pb.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got playback.PlaybackSession
		decode(t, w, &got)
		assert.Equal(t, playback.StatusCompleted, got.Status)
		assert.Equal(t, 2, got.CurrentStepIndex)
	})

	t.Run("results", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/playbacks/"+pb.ID.String()+"/results", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Items []*playback.StepResult `json:"items"`
		}
		decode(t, w, &page)
		require.Len(t, page.Items, 2)
		assert.Equal(t, playback.ResultPassed, page.Items[0].Status)
		assert.Equal(t, playback.ResultPassed, page.Items[1].Status)
	})

	t.Run("list by recording", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/recordings/"+session.ID.String()+"/playbacks", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page PaginatedResponse
		decode(t, w, &page)
		assert.Equal(t, 1, page.Total)
	})
}

func TestPlaybackHandler_FailureMapsToResults(t *testing.T) {
	env := setupEnv(t)

	session := env.startRecording(t, "bs-fail")
	env.seedSteps(t, session.ID, "#missing", "#confirm")
	env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/complete", nil)

	env.fake.SetMissing("#missing")

	w := env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/playbacks", StartPlaybackRequest{
		BrowserSessionID: "bs-fail",
		Speed:            50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var pb playback.PlaybackSession
	decode(t, w, &pb)
	env.engine.Wait(pb.ID)

	got := env.do(t, http.MethodGet, "/api/v1/playbacks/"+pb.ID.String(), nil)
	var finished playback.PlaybackSession
	decode(t, got, &finished)
	assert.Equal(t, playback.StatusFailed, finished.Status)

	results := env.do(t, http.MethodGet, "/api/v1/playbacks/"+pb.ID.String()+"/results", nil)
	var page struct {
		Items []*playback.StepResult `json:"items"`
	}
	decode(t, results, &page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, playback.ResultFailed, page.Items[0].Status)
	assert.Equal(t, playback.ResultSkipped, page.Items[1].Status)
}

func TestPlaybackHandler_StartValidation(t *testing.T) {
	env := setupEnv(t)

	t.Run("unknown recording", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/recordings/"+uuid.NewString()+"/playbacks", StartPlaybackRequest{
			BrowserSessionID: "bs-x",
		})
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeSessionNotFound, resp.Code)
	})

	t.Run("no steps", func(t *testing.T) {
		session := env.startRecording(t, "bs-empty")
		env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/complete", nil)

		w := env.do(t, http.MethodPost, "/api/v1/recordings/"+session.ID.String()+"/playbacks", StartPlaybackRequest{
			BrowserSessionID: "bs-empty",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, CodeValidationError, resp.Code)
	})

	t.Run("unknown playback", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/playbacks/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
