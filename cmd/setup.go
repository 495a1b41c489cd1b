package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgecity/opsmail/db"
	"github.com/edgecity/opsmail/internal/config"
	"github.com/edgecity/opsmail/internal/ingest"
	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
	"github.com/edgecity/opsmail/internal/store"
)

// app holds everything a command needs after wiring.
type app struct {
	Config    *config.Config
	Logger    log.Logger
	Pool      *pgxpool.Pool
	Pipeline  *pipeline.Pipeline
	Retriever *pipeline.Retriever
	Ingester  *ingest.Ingester
	Documents *store.DocumentStore
	Queries   *store.QueryStore
	Facts     *store.FactStore
}

// Close releases held resources.
func (a *app) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// setup loads configuration, runs migrations, connects to Postgres and
// assembles the pipeline with its Genkit-backed model clients.
func setup(ctx context.Context, logger log.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	g, err := llm.Init(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing Genkit: %w", err)
	}
	generator := llm.NewGenerator(g, cfg.ModelName)
	embedder := llm.NewEmbedder(g, cfg.EmbedderModel)

	chunks := store.NewChunkStore(pool, logger)
	facts := store.NewFactStore(pool, logger)

	return &app{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Pipeline:  pipeline.New(embedder, generator, chunks, facts, cfg.RetrievalTopK, logger),
		Retriever: pipeline.NewRetriever(embedder, chunks, facts, cfg.RetrievalTopK, logger),
		Ingester:  ingest.New(embedder, chunks, store.NewDocumentStore(pool, logger), logger),
		Documents: store.NewDocumentStore(pool, logger),
		Queries:   store.NewQueryStore(pool, logger),
		Facts:     facts,
	}, nil
}
