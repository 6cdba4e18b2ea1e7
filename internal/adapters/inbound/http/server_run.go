package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"github.com/shelfsight/matchengine/internal/usecases"
)

// MatchEngineServer is the REST API HTTP server for the matching engine.
type MatchEngineServer struct {
	Port                       int                          `config:"HTTP_PORT" default:"8080"`
	Logger                     *log.Logger                  `resolve:""`
	CreateImportBatchUseCase   usecases.CreateImportBatch   `resolve:""`
	GetImportBatchUseCase      usecases.GetImportBatch      `resolve:""`
	ListMatchCandidatesUseCase usecases.ListMatchCandidates `resolve:""`
	StartRecognitionUseCase    usecases.StartRecognition    `resolve:""`
	MatchSessionUseCase        usecases.MatchSession        `resolve:""`
	GenerateListingUseCase     usecases.GenerateListing     `resolve:""`
}

// Handler builds the fully wired HTTP handler, including telemetry and CORS.
func (api MatchEngineServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Register introspection endpoint for debugging and testing purposes
	mux.HandleFunc("GET /introspect", IntrospectHandler)

	mux.HandleFunc("POST /api/batches", api.UploadBatch)
	mux.HandleFunc("GET /api/batches/{batchId}", api.GetBatch)
	mux.HandleFunc("GET /api/batches/{batchId}/candidates", api.ListBatchCandidates)

	mux.HandleFunc("POST /api/recognitions", api.StartRecognition)
	mux.HandleFunc("POST /api/recognitions/{sessionId}/match", api.MatchSession)
	mux.HandleFunc("POST /api/recognitions/{sessionId}/generate", api.GenerateListing)

	h := telemetry.Middleware("matchengine-api")(mux)

	// Apply CORS at the top-level so preflight requests hit it, too.
	return cors.AllowAll().Handler(h)
}

// Run starts the HTTP server for the MatchEngineServer.
func (api MatchEngineServer) Run(ctx context.Context) error {
	s := &http.Server{
		Handler: api.Handler(),
		Addr:    fmt.Sprintf(":%d", api.Port),
	}

	errCh := make(chan error, 1)
	go func() {
		api.Logger.Printf("MatchEngineServer: Listening on port %d", api.Port)
		errCh <- s.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.Shutdown(shutdownCtx)
		if err != nil {
			api.Logger.Printf("MatchEngineServer: error during shutdown: %v", err)
		} else {
			api.Logger.Println("MatchEngineServer: stopped")
		}
		return err
	case err := <-errCh:
		return err
	}
}

// IsReady checks if the MatchEngineServer is ready by performing a health check.
func (api MatchEngineServer) IsReady(ctx context.Context) error {
	resp, err := http.Get(fmt.Sprintf("http://:%d/healthz", api.Port))
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
