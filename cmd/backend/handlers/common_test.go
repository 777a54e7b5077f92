package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/codegen"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/playback"
	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/synth"
	"github.com/stepwright/stepwright/testutil"
)

// testEnv wires the full API surface against an in-memory database and a
// scripted browser adapter.
type testEnv struct {
	router    *mux.Router
	db        *gorm.DB
	manager   *recording.Manager
	engine    *playback.Engine
	steps     recording.StepStore
	fake      *browser.Fake
	userID    uuid.UUID
	projectID uuid.UUID
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db,
		&recording.RecordingSession{}, &recording.Step{},
		&playback.PlaybackSession{}, &playback.StepResult{},
		&codegen.GeneratedTest{})

	log := logger.NewTestLogger()
	recordingStore := recording.NewMySQLStore(db, log)
	stepStore := recording.NewStepMySQLStore(db, log)
	playbackStore := playback.NewMySQLStore(db, log)
	resultStore := playback.NewResultMySQLStore(db, log)
	codegenStore := codegen.NewMySQLStore(db, log)

	manager := recording.NewManager(recordingStore, stepStore, recording.NopPublisher{},
		synth.Factory(synth.NewRuleClassifier(), log), log)

	fake := browser.NewFake("https://shop.example.com")
	dial := func(ctx context.Context, browserSessionID string) (browser.Adapter, error) {
		return fake, nil
	}
	engine := playback.NewEngine(playbackStore, resultStore, stepStore, recordingStore,
		dial, nil, playback.NopPublisher{}, log)

	codegenService := codegen.NewService(codegenStore, stepStore, recordingStore, log)

	recordingHandler := NewRecordingHandler(manager, recordingStore, stepStore, log)
	playbackHandler := NewPlaybackHandler(engine, playbackStore, resultStore, log)
	codegenHandler := NewCodegenHandler(codegenService, codegenStore, log)
	identity := NewIdentityMiddleware(log)

	router := mux.NewRouter()
	router.HandleFunc("/health", HealthHandler).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(identity.Handler)

	apiRouter.HandleFunc("/recordings", recordingHandler.Start).Methods("POST")
	apiRouter.HandleFunc("/recordings", recordingHandler.List).Methods("GET")
	apiRouter.HandleFunc("/recordings/{id}", recordingHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/recordings/{id}/pause", recordingHandler.Pause).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/resume", recordingHandler.Resume).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/complete", recordingHandler.Complete).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/cancel", recordingHandler.Cancel).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/steps", recordingHandler.ListSteps).Methods("GET")
	apiRouter.HandleFunc("/recordings/{id}/suggestions", recordingHandler.Suggestions).Methods("GET")
	apiRouter.HandleFunc("/recordings/{id}/quality", recordingHandler.Quality).Methods("GET")
	apiRouter.HandleFunc("/steps/{step_id}", recordingHandler.UpdateStep).Methods("PUT")
	apiRouter.HandleFunc("/steps/{step_id}", recordingHandler.DeleteStep).Methods("DELETE")
	apiRouter.HandleFunc("/steps/{step_id}/verify", recordingHandler.VerifyStep).Methods("POST")

	apiRouter.HandleFunc("/recordings/{id}/playbacks", playbackHandler.Start).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/playbacks", playbackHandler.List).Methods("GET")
	apiRouter.HandleFunc("/playbacks/{playback_id}", playbackHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/playbacks/{playback_id}/pause", playbackHandler.Pause).Methods("POST")
	apiRouter.HandleFunc("/playbacks/{playback_id}/resume", playbackHandler.Resume).Methods("POST")
	apiRouter.HandleFunc("/playbacks/{playback_id}/stop", playbackHandler.Stop).Methods("POST")
	apiRouter.HandleFunc("/playbacks/{playback_id}/results", playbackHandler.Results).Methods("GET")

	apiRouter.HandleFunc("/recordings/{id}/generate", codegenHandler.Generate).Methods("POST")
	apiRouter.HandleFunc("/recordings/{id}/tests", codegenHandler.ListGenerated).Methods("GET")
	apiRouter.HandleFunc("/tests/{test_id}", codegenHandler.GetGenerated).Methods("GET")

	return &testEnv{
		router:    router,
		db:        db,
		manager:   manager,
		engine:    engine,
		steps:     stepStore,
		fake:      fake,
		userID:    uuid.New(),
		projectID: uuid.New(),
	}
}

// do issues a request against the router with the identity header set.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(UserIDHeader, e.userID.String())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a recorded JSON response body.
func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

// startRecording creates a recording session through the API.
func (e *testEnv) startRecording(t *testing.T, browserSessionID string) *recording.RecordingSession {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/recordings", StartRecordingRequest{
		ProjectID:        e.projectID.String(),
		BrowserSessionID: browserSessionID,
		Name:             "Checkout flow",
		CurrentURL:       "https://shop.example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session recording.RecordingSession
	decode(t, w, &session)
	return &session
}

// seedSteps appends steps directly through the store and completes the
// recording so it can be replayed and exported.
func (e *testEnv) seedSteps(t *testing.T, sessionID uuid.UUID, selectors ...string) {
	t.Helper()
	ctx := context.Background()

	for _, selector := range selectors {
		require.NoError(t, e.steps.Append(ctx, &recording.Step{
			RecordingSessionID: sessionID,
			NaturalLanguage:    "Click on the submit button",
			ActionType:         recording.ActionClick,
			ElementSelector:    selector,
			ConfidenceScore:    0.9,
		}))
	}
}
