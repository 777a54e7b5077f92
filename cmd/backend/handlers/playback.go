package handlers

import (
	"net/http"

	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/playback"
)

// PlaybackHandler handles playback session requests.
type PlaybackHandler struct {
	engine  *playback.Engine
	store   playback.Store
	results playback.ResultStore
	logger  logger.Logger
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(engine *playback.Engine, store playback.Store, results playback.ResultStore, log logger.Logger) *PlaybackHandler {
	return &PlaybackHandler{
		engine:  engine,
		store:   store,
		results: results,
		logger:  log,
	}
}

// StartPlaybackRequest represents a playback start request.
type StartPlaybackRequest struct {
	BrowserSessionID   string  `json:"browser_session_id"`
	Speed              float64 `json:"speed"`
	CaptureScreenshots bool    `json:"capture_screenshots"`
	StopOnError        *bool   `json:"stop_on_error,omitempty"`
}

// Start handles starting a replay of a recording's steps.
func (h *PlaybackHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeValidationError, "user not authenticated")
		return
	}

	recordingID, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	var req StartPlaybackRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	session := &playback.PlaybackSession{
		RecordingSessionID: recordingID,
		BrowserSessionID:   req.BrowserSessionID,
		Speed:              req.Speed,
		CaptureScreenshots: req.CaptureScreenshots,
		StopOnError:        true,
		StartedBy:          userID,
	}
	if req.StopOnError != nil {
		session.StopOnError = *req.StopOnError
	}

	if err := h.engine.Start(r.Context(), session); err != nil {
		h.logger.Error(r.Context(), "failed to start playback", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": recordingID,
		})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// GetByID handles retrieving a playback session.
func (h *PlaybackHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "playback_id", "playback session")
	if !ok {
		return
	}

	session, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// List handles listing playbacks of a recording.
func (h *PlaybackHandler) List(w http.ResponseWriter, r *http.Request) {
	recordingID, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	sessions, err := h.store.ListByRecording(r.Context(), recordingID, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(sessions, len(sessions), limit, offset))
}

// Pause handles pausing a running playback.
func (h *PlaybackHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "playback_id", "playback session")
	if !ok {
		return
	}

	if err := h.engine.Pause(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "playback paused"})
}

// Resume handles continuing a paused playback.
func (h *PlaybackHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "playback_id", "playback session")
	if !ok {
		return
	}

	if err := h.engine.Resume(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "playback resumed"})
}

// Stop handles cancelling a playback. Remaining steps are recorded as
// skipped.
func (h *PlaybackHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "playback_id", "playback session")
	if !ok {
		return
	}

	if err := h.engine.Stop(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	session, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Results handles listing the per-step outcomes of a playback.
func (h *PlaybackHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "playback_id", "playback session")
	if !ok {
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	results, err := h.results.ListByPlayback(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(results, len(results), len(results), 0))
}
