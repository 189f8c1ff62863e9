package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/midfieldhq/reconciler/external/thesportsdb"
	"github.com/midfieldhq/reconciler/internal/config"
	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/infrastructure/repository/postgres"
	"github.com/midfieldhq/reconciler/internal/interfaces/httpapi"
	"github.com/midfieldhq/reconciler/internal/platform/cache"
	idgen "github.com/midfieldhq/reconciler/internal/platform/id"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/platform/resilience"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

// App wires the reconciliation pipeline: postgres repositories, the
// TheSportsDB client, the sync services, and the worker HTTP surface.
type App struct {
	Config config.Config
	Logger *logging.Logger
	DB     *sqlx.DB

	Jobs      syncjob.Repository
	Topics    *usecase.TopicService
	Sync      *usecase.SyncService
	Processor *usecase.JobProcessorService
	Producer  *usecase.JobProducerService
	Fixtures  *usecase.FixtureService
	HTTP      *httpapi.Server
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	topicRepo := postgres.NewTopicRepository(db)
	relationshipRepo := postgres.NewRelationshipRepository(db)
	fixtureRepo := postgres.NewFixtureRepository(db)
	standingRepo := postgres.NewStandingRepository(db)
	jobRepo := postgres.NewSyncJobRepository(db)

	provider := thesportsdb.NewClient(thesportsdb.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.SportsDBTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		V1BaseURL:      cfg.SportsDBV1BaseURL,
		V2BaseURL:      cfg.SportsDBV2BaseURL,
		APIKey:         cfg.SportsDBAPIKey,
		MaxRetries:     cfg.SportsDBMaxRetries,
		RetryBaseDelay: cfg.SportsDBRetryBaseDelay,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportsDBCircuitEnabled,
			FailureThreshold: cfg.SportsDBCircuitFailures,
			OpenTimeout:      cfg.SportsDBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportsDBCircuitHalfOpenMax,
		},
	})

	ids := idgen.NewDeterministicGenerator()
	topics := usecase.NewTopicService(topicRepo, ids, cache.NewStore(cfg.StubCacheTTL), logger)
	relationships := usecase.NewRelationshipService(relationshipRepo, ids, logger)
	syncSvc := usecase.NewSyncService(provider, topics, relationships, standingRepo, jobRepo, usecase.SyncConfig{
		ContinentalLeagueIDs: cfg.ContinentalLeagueIDs,
		FanoutWorkers:        cfg.SyncFanoutWorkers,
	}, logger)
	processor := usecase.NewJobProcessorService(jobRepo, syncSvc, cfg.SyncBatchSize, cfg.SyncProcessingLease, cfg.SyncFanoutWorkers, logger)
	producer := usecase.NewJobProducerService(jobRepo, topicRepo, logger)
	fixtures := usecase.NewFixtureService(provider, fixtureRepo, topics, ids, logger)

	httpSrv := httpapi.NewServer(
		&httpapi.JobProcessorFacade{ProcessBatch: processor.ProcessBatch},
		producer,
		jobRepo,
		logger,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Jobs:      jobRepo,
		Topics:    topics,
		Sync:      syncSvc,
		Processor: processor,
		Producer:  producer,
		Fixtures:  fixtures,
		HTTP:      httpSrv,
	}, nil
}

// Close releases pooled resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}
