package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/codegen"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/playback"
	"github.com/stepwright/stepwright/recording"
)

// Machine-readable error codes returned alongside HTTP statuses.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeSessionBusy       = "SESSION_BUSY"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeSynthesisError    = "SYNTHESIS_ERROR"
	CodeElementNotFound   = "ELEMENT_NOT_FOUND"
	CodeUnsupportedAction = "UNSUPPORTED_ACTION"
	CodeTransportError    = "TRANSPORT_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SuccessResponse represents a success response with a message.
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginatedResponse represents a standardized paginated API response.
type PaginatedResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// NewPaginatedResponse creates a new paginated response.
func NewPaginatedResponse(items interface{}, total, limit, offset int) PaginatedResponse {
	return PaginatedResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with the given status and code.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps domain sentinel errors onto HTTP statuses and
// machine-readable codes. Unrecognized errors become an opaque 500.
func respondDomainError(w http.ResponseWriter, err error) {
	var unsupported *codegen.UnsupportedActionError
	switch {
	case errors.Is(err, recording.ErrRecordingNotFound),
		errors.Is(err, recording.ErrStepNotFound),
		errors.Is(err, playback.ErrPlaybackNotFound),
		errors.Is(err, codegen.ErrGeneratedTestNotFound):
		respondError(w, http.StatusNotFound, CodeSessionNotFound, err.Error())

	case errors.Is(err, recording.ErrSessionBusy),
		errors.Is(err, playback.ErrSessionBusy):
		respondError(w, http.StatusConflict, CodeSessionBusy, err.Error())

	case errors.Is(err, recording.ErrInvalidTransition),
		errors.Is(err, recording.ErrRecordingFinished),
		errors.Is(err, playback.ErrInvalidTransition),
		errors.Is(err, playback.ErrPlaybackFinished):
		respondError(w, http.StatusConflict, CodeValidationError, err.Error())

	case errors.Is(err, recording.ErrInvalidName),
		errors.Is(err, recording.ErrInvalidProjectID),
		errors.Is(err, recording.ErrInvalidBrowserSession),
		errors.Is(err, recording.ErrInvalidActionType),
		errors.Is(err, recording.ErrInvalidSelector),
		errors.Is(err, recording.ErrInvalidRecordingID),
		errors.Is(err, playback.ErrInvalidRecordingID),
		errors.Is(err, playback.ErrInvalidBrowserSession),
		errors.Is(err, playback.ErrInvalidSpeed),
		errors.Is(err, playback.ErrNoSteps),
		errors.Is(err, codegen.ErrInvalidFramework),
		errors.Is(err, codegen.ErrInvalidRecordingID):
		respondError(w, http.StatusBadRequest, CodeValidationError, err.Error())

	case errors.As(err, &unsupported):
		respondError(w, http.StatusUnprocessableEntity, CodeUnsupportedAction, err.Error())

	case errors.Is(err, browser.ErrElementNotFound):
		respondError(w, http.StatusUnprocessableEntity, CodeElementNotFound, err.Error())

	case errors.Is(err, browser.ErrSessionClosed):
		respondError(w, http.StatusBadGateway, CodeTransportError, err.Error())

	default:
		respondError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

// parseJSON parses JSON from the request body into the given destination.
func parseJSON(r *http.Request, dest interface{}, log logger.Logger) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		log.Error(r.Context(), "failed to parse JSON", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// parseUUID parses a UUID from the request path parameters.
func parseUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	vars := mux.Vars(r)
	return uuid.Parse(vars[paramName])
}

// parseUUIDString parses a UUID from a raw string value.
func parseUUIDString(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// parseUUIDOrRespond parses a UUID from path parameters and responds with an
// error if invalid. Returns the UUID and true on success.
func parseUUIDOrRespond(w http.ResponseWriter, r *http.Request, paramName, entityName string) (uuid.UUID, bool) {
	id, err := parseUUID(r, paramName)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError,
			fmt.Sprintf("invalid %s ID: must be a valid UUID", entityName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads limit/offset query parameters with bounds applied.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
