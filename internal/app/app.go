package app

import (
	"github.com/cleitonmarx/symbiont"
	"github.com/shelfsight/matchengine/internal/adapters/inbound/http"
	"github.com/shelfsight/matchengine/internal/adapters/inbound/workers"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/config"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/log"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/modelrunner"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/postgres"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/pubsub"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/sessions"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/time"
	"github.com/shelfsight/matchengine/internal/adapters/outbound/websearch"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"github.com/shelfsight/matchengine/internal/usecases"
)

// NewMatchEngine creates and returns a new instance of the matching engine application.
func NewMatchEngine(initializers ...symbiont.Initializer) *symbiont.App {
	return symbiont.NewApp().
		Initialize(initializers...).
		Initialize(
			&log.InitLogger{},
			&telemetry.InitOpenTelemetry{},
			&telemetry.InitHttpClient{},
			&config.InitVaultProvider{},
			&config.InitScoringPolicy{},
			&postgres.InitDB{},
			&postgres.InitUnitOfWork{},
			&postgres.InitCatalogRepository{},
			&postgres.InitVectorIndex{},
			&postgres.InitImportRepository{},
			&postgres.InitOutboxRepository{},
			&postgres.InitActivityRepository{},
			&time.InitCurrentTimeProvider{},
			&pubsub.InitClient{},
			&pubsub.InitPublisher{},
			&sessions.InitSessionStore{},
			&modelrunner.InitSemanticEncoder{},
			&modelrunner.InitReranker{},
			&modelrunner.InitLLMClient{},
			&websearch.InitExternalSearcher{},

			&usecases.InitCreateImportBatch{},
			&usecases.InitGetImportBatch{},
			&usecases.InitListMatchCandidates{},
			&usecases.InitRunImportBatch{},
			&usecases.InitRerankCandidates{},
			&usecases.InitStartRecognition{},
			&usecases.InitMatchSession{},
			&usecases.InitGenerateListing{},
			&usecases.InitRelayOutbox{},
		).
		Host(
			&http.MatchEngineServer{},
			&workers.BatchEventSubscriber{},
			&workers.SessionJanitor{},
			&workers.MessageRelay{},
		).
		Introspect(&MermaidGraphIntrospector{})
}
