package main

// PaginatedResponse matches handlers.PaginatedResponse.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SuccessResponse matches handlers.SuccessResponse.
type SuccessResponse struct {
	Message string `json:"message"`
}

// StartRecordingRequest matches handlers.StartRecordingRequest.
type StartRecordingRequest struct {
	ProjectID        string `json:"project_id"`
	BrowserSessionID string `json:"browser_session_id"`
	Name             string `json:"name"`
	CurrentURL       string `json:"current_url"`
}

// UpdateStepRequest matches handlers.UpdateStepRequest.
type UpdateStepRequest struct {
	NaturalLanguage *string `json:"natural_language,omitempty"`
	ActionType      *string `json:"action_type,omitempty"`
	ElementSelector *string `json:"element_selector,omitempty"`
	Value           *string `json:"value,omitempty"`
}

// StartPlaybackRequest matches handlers.StartPlaybackRequest.
type StartPlaybackRequest struct {
	BrowserSessionID   string  `json:"browser_session_id"`
	Speed              float64 `json:"speed"`
	CaptureScreenshots bool    `json:"capture_screenshots"`
	StopOnError        *bool   `json:"stop_on_error,omitempty"`
}

// GenerateRequest matches handlers.GenerateRequest.
type GenerateRequest struct {
	Framework       string `json:"framework"`
	TestName        string `json:"test_name"`
	BaseURL         string `json:"base_url"`
	IncludeComments bool   `json:"include_comments"`
}
