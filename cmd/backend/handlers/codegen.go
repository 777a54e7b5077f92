package handlers

import (
	"net/http"

	"github.com/stepwright/stepwright/codegen"
	"github.com/stepwright/stepwright/logger"
)

// CodegenHandler handles test code generation requests.
type CodegenHandler struct {
	service *codegen.Service
	store   codegen.Store
	logger  logger.Logger
}

// NewCodegenHandler creates a new code generation handler.
func NewCodegenHandler(service *codegen.Service, store codegen.Store, log logger.Logger) *CodegenHandler {
	return &CodegenHandler{
		service: service,
		store:   store,
		logger:  log,
	}
}

// GenerateRequest represents a code generation request.
type GenerateRequest struct {
	Framework       string `json:"framework"`
	TestName        string `json:"test_name"`
	BaseURL         string `json:"base_url"`
	IncludeComments bool   `json:"include_comments"`
}

// GenerateResponse wraps a generated test with its cache provenance.
type GenerateResponse struct {
	Test   *codegen.GeneratedTest `json:"test"`
	Cached bool                   `json:"cached"`
}

// Generate handles rendering a recording's steps as test code.
func (h *CodegenHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeValidationError, "user not authenticated")
		return
	}

	recordingID, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	var req GenerateRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	opts := codegen.Options{
		Framework:       codegen.Framework(req.Framework),
		TestName:        req.TestName,
		BaseURL:         req.BaseURL,
		IncludeComments: req.IncludeComments,
	}

	test, cached, err := h.service.Generate(r.Context(), recordingID, opts, userID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to generate test code", map[string]interface{}{
			"error":                err.Error(),
			"recording_session_id": recordingID,
			"framework":            req.Framework,
		})
		respondDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	respondJSON(w, status, GenerateResponse{Test: test, Cached: cached})
}

// ListGenerated handles listing previously generated tests of a recording.
func (h *CodegenHandler) ListGenerated(w http.ResponseWriter, r *http.Request) {
	recordingID, ok := parseUUIDOrRespond(w, r, "id", "recording session")
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	tests, err := h.store.ListByRecording(r.Context(), recordingID, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(tests, len(tests), limit, offset))
}

// GetGenerated handles retrieving one generated test by ID.
func (h *CodegenHandler) GetGenerated(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "test_id", "generated test")
	if !ok {
		return
	}

	test, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, test)
}
