package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/cmd/backend/handlers"
	"github.com/stepwright/stepwright/codegen"
	"github.com/stepwright/stepwright/database"
	"github.com/stepwright/stepwright/logger"
	"github.com/stepwright/stepwright/playback"
	"github.com/stepwright/stepwright/realtime"
	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/storage"
	"github.com/stepwright/stepwright/synth"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	// Connect to database
	dbCfg := database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// Initialize stores
	recordingStore := recording.NewMySQLStore(db, log)
	stepStore := recording.NewStepMySQLStore(db, log)
	playbackStore := playback.NewMySQLStore(db, log)
	resultStore := playback.NewResultMySQLStore(db, log)
	codegenStore := codegen.NewMySQLStore(db, log)

	// Initialize blob storage for screenshots
	blobs, err := storage.NewBlobStorage(cfg.Storage.Type, map[string]interface{}{
		"base_dir": cfg.Storage.BaseDir,
		"bucket":   cfg.Storage.S3Bucket,
		"region":   cfg.Storage.S3Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	// Initialize the step classifier
	var classifier synth.Classifier = synth.NewRuleClassifier()
	if cfg.Bedrock.Enabled {
		classifier, err = synth.NewBedrockClassifier(cfg.Bedrock.Region, cfg.Bedrock.Model, cfg.Bedrock.MaxTokens, log)
		if err != nil {
			return fmt.Errorf("failed to initialize bedrock classifier: %w", err)
		}
		log.Info(ctx, "bedrock classifier enabled", map[string]interface{}{
			"region": cfg.Bedrock.Region,
			"model":  cfg.Bedrock.Model,
		})
	}

	// The hub publishes recording and playback feedback to WebSocket
	// subscribers; the recording manager consumes browser events the hub
	// receives.
	hub := realtime.NewHub(nil, log)

	manager := recording.NewManager(recordingStore, stepStore, hub, synth.Factory(classifier, log), log)
	hub.SetHandler(manager)

	dial := func(ctx context.Context, browserSessionID string) (browser.Adapter, error) {
		return browser.DialRemote(ctx, cfg.Browser.DriverURL, browserSessionID, log)
	}
	engine := playback.NewEngine(playbackStore, resultStore, stepStore, recordingStore, dial, blobs, hub, log)

	codegenService := codegen.NewService(codegenStore, stepStore, recordingStore, log)

	// Setup router
	router := mux.NewRouter()

	// Health check and realtime endpoints (public)
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")
	router.HandleFunc("/ws", hub.ServeWS)

	// Protected API routes
	recordingHandler := handlers.NewRecordingHandler(manager, recordingStore, stepStore, log)
	playbackHandler := handlers.NewPlaybackHandler(engine, playbackStore, resultStore, log)
	codegenHandler := handlers.NewCodegenHandler(codegenService, codegenStore, log)
	identity := handlers.NewIdentityMiddleware(log)

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

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped", nil)
	return nil
}
