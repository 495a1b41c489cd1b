// Package api exposes the opsmail pipeline over HTTP.
//
// Endpoints:
//
//	GET    /health              liveness probe
//	GET    /ready               readiness probe (pings the database)
//	POST   /api/generate        run the pipeline for a pasted email
//	POST   /api/inbound         webhook for forwarded emails (shared secret)
//	POST   /api/documents       upload and ingest a PDF
//	GET    /api/documents       list documents
//	DELETE /api/documents/{id}  delete a document and its chunks
//	GET    /api/queries         list email queries
//	GET    /api/queries/{id}    fetch one query
//	PATCH  /api/queries/{id}    approve or escalate a pending query
//	GET    /api/facts           list facts
//	POST   /api/facts           create a fact
//	PATCH  /api/facts/{id}      update a fact's value/confidence
//	DELETE /api/facts/{id}      deprecate a fact
//	POST   /api/retrieval       retrieval dry-run for debugging
//	POST   /api/reembed         re-embed all active chunks
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgecity/opsmail/internal/ingest"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
	"github.com/edgecity/opsmail/internal/store"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire
	// request, sized for PDF uploads.
	ReadTimeout = 60 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Pipeline runs include two model calls, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the opsmail REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health    *HealthHandler
	generate  *GenerateHandler
	inbound   *InboundHandler
	documents *DocumentHandler
	queries   *QueryHandler
	facts     *FactHandler
	retrieval *RetrievalHandler
	reembed   *ReembedHandler
}

// ServerConfig carries everything the handlers need.
type ServerConfig struct {
	Pool          *pgxpool.Pool
	Pipeline      *pipeline.Pipeline
	Retriever     *pipeline.Retriever
	Ingester      *ingest.Ingester
	Documents     *store.DocumentStore
	Queries       *store.QueryStore
	Facts         *store.FactStore
	InboundSecret string
	Logger        log.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		logger:    cfg.Logger,
		health:    NewHealthHandler(cfg.Pool, cfg.Logger),
		generate:  NewGenerateHandler(cfg.Pipeline, cfg.Queries, cfg.Logger),
		inbound:   NewInboundHandler(cfg.Pipeline, cfg.Queries, cfg.InboundSecret, cfg.Logger),
		documents: NewDocumentHandler(cfg.Ingester, cfg.Documents, cfg.Logger),
		queries:   NewQueryHandler(cfg.Queries, cfg.Logger),
		facts:     NewFactHandler(cfg.Facts, cfg.Logger),
		retrieval: NewRetrievalHandler(cfg.Retriever, cfg.Logger),
		reembed:   NewReembedHandler(cfg.Ingester, cfg.Logger),
	}

	s.health.RegisterRoutes(mux)
	s.generate.RegisterRoutes(mux)
	s.inbound.RegisterRoutes(mux)
	s.documents.RegisterRoutes(mux)
	s.queries.RegisterRoutes(mux)
	s.facts.RegisterRoutes(mux)
	s.retrieval.RegisterRoutes(mux)
	s.reembed.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
