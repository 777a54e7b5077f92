package handlers

import (
	"net/http"

	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/synth"
)

// RecordingHandler handles recording session requests.
type RecordingHandler struct {
	manager   *recording.Manager
	store     recording.Store
	stepStore recording.StepStore
	logger    logger.Logger
}

// NewRecordingHandler creates a new recording handler.
func NewRecordingHandler(manager *recording.Manager, store recording.Store, stepStore recording.StepStore, log logger.Logger) *RecordingHandler {
	return &RecordingHandler{
		manager:   manager,
		store:     store,
		stepStore: stepStore,
		logger:    log,
	}
}

// StartRecordingRequest represents a recording start request.
type StartRecordingRequest struct {
	ProjectID        string `json:"project_id"`
	BrowserSessionID string `json:"browser_session_id"`
	Name             string `json:"name"`
	CurrentURL       string `json:"current_url"`
}

// UpdateStepRequest represents a step edit request. Only non-nil fields are
// applied.
type UpdateStepRequest struct {
	NaturalLanguage     *string             `json:"natural_language,omitempty"`
	ActionType          *string             `json:"action_type,omitempty"`
	ElementSelector     *string             `json:"element_selector,omitempty"`
	ElementDescription  *string             `json:"element_description,omitempty"`
	ElementAlternatives *recording.Selectors `json:"element_alternatives,omitempty"`
	Value               *string             `json:"value,omitempty"`
}

// Start handles starting a new recording session.
func (h *RecordingHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeValidationError, "user not authenticated")
		return
	}

	var req StartRecordingRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	session := &recording.RecordingSession{
		BrowserSessionID: req.BrowserSessionID,
		Name:             req.Name,
		CurrentURL:       req.CurrentURL,
		CreatedBy:        userID,
	}
	if req.ProjectID != "" {
		projectID, err := parseUUIDString(req.ProjectID)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeValidationError, "invalid project_id: must be a valid UUID")
			return
		}
		session.ProjectID = projectID
	}

	if err := h.manager.Start(r.Context(), session); err != nil {
		h.logger.Error(r.Context(), "failed to start recording", map[string]interface{}{
			"error":              err.Error(),
			"browser_session_id": req.BrowserSessionID,
		})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// GetByID handles retrieving a recording session.
func (h *RecordingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
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

// List handles listing recording sessions for a project.
func (h *RecordingHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDString(r.URL.Query().Get("project_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "project_id query parameter is required")
		return
	}

	limit, offset := parsePagination(r)

	sessions, err := h.store.ListByProject(r.Context(), projectID, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list recordings", map[string]interface{}{
			"error":      err.Error(),
			"project_id": projectID,
		})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(sessions, len(sessions), limit, offset))
}

// Pause handles pausing a recording session.
func (h *RecordingHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	if err := h.manager.Pause(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "recording paused"})
}

// Resume handles resuming a paused recording session.
func (h *RecordingHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	if err := h.manager.Resume(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "recording resumed"})
}

// Complete handles finalizing a recording session.
func (h *RecordingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	session, err := h.manager.Complete(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Cancel handles cancelling a recording session. Already persisted steps are
// kept.
func (h *RecordingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	session, err := h.manager.Cancel(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// ListSteps handles listing the steps of a recording session.
func (h *RecordingHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	steps, err := h.stepStore.ListBySession(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(steps, len(steps), len(steps), 0))
}

// UpdateStep handles editing a step's fields.
func (h *RecordingHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "step_id", "step")
	if !ok {
		return
	}

	var req UpdateStepRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	var setters []recording.StepUpdateSetter
	if req.NaturalLanguage != nil {
		setters = append(setters, recording.SetNaturalLanguage(*req.NaturalLanguage))
	}
	if req.ActionType != nil {
		setters = append(setters, recording.SetActionType(recording.ActionType(*req.ActionType)))
	}
	if req.ElementSelector != nil {
		setters = append(setters, recording.SetElementSelector(*req.ElementSelector))
	}
	if req.ElementDescription != nil {
		setters = append(setters, recording.SetElementDescription(*req.ElementDescription))
	}
	if req.ElementAlternatives != nil {
		setters = append(setters, recording.SetElementAlternatives(*req.ElementAlternatives))
	}
	if req.Value != nil {
		setters = append(setters, recording.SetValue(*req.Value))
	}
	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, CodeValidationError, "no fields to update")
		return
	}

	if err := h.stepStore.Update(r.Context(), id, setters...); err != nil {
		respondDomainError(w, err)
		return
	}

	step, err := h.stepStore.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, step)
}

// VerifyStep handles marking a step as user verified.
func (h *RecordingHandler) VerifyStep(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "step_id", "step")
	if !ok {
		return
	}

	if err := h.stepStore.Verify(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "step verified"})
}

// DeleteStep handles deleting a step. Remaining steps are renumbered so
// order indices stay contiguous.
func (h *RecordingHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "step_id", "step")
	if !ok {
		return
	}

	if err := h.stepStore.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "step deleted"})
}

// SuggestionsResponse represents ranked step improvement suggestions.
type SuggestionsResponse struct {
	Suggestions []synth.Suggestion `json:"suggestions"`
}

// Suggestions handles computing improvement suggestions for a session's steps.
func (h *RecordingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	steps, err := h.stepStore.ListBySession(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	suggestions := synth.Suggest(steps, recording.DefaultQualityLimits())
	respondJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

// Quality handles recomputing the quality report for a session's steps.
func (h *RecordingHandler) Quality(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	steps, err := h.stepStore.ListBySession(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	report := recording.AnalyzeQuality(steps, recording.DefaultQualityLimits())
	respondJSON(w, http.StatusOK, report)
}
