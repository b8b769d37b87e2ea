// Package api provides the HTTP REST API for answerd.
//
// Endpoints:
//
//	POST /api/ask                  →  answer a query
//	POST /api/train                →  submit feedback for a session
//	GET  /api/sessions/{id}        →  inspect a training session
//	POST /api/admin/feedback/bulk  →  bulk feedback submission
//	POST /api/admin/chunks/weight  →  manual chunk weight override
//	POST /api/workflows/search     →  explorative workflow search
//	GET  /health                   →  liveness probe
//	GET  /ready                    →  readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, request ID, logging)
//   - health.go: health check endpoints
//   - ask.go: ask endpoint
//   - training.go: feedback and session inspection endpoints
//   - admin.go: bulk feedback and weight override endpoints
//   - workflows.go: workflow search endpoint
//   - response.go: JSON response helpers and error mapping
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudvelous/answerd/internal/answer"
	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// AskService answers queries.
type AskService interface {
	Ask(ctx context.Context, query string) (*answer.Answer, error)
}

// FeedbackService processes feedback submissions and weight overrides.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, fb feedback.Feedback) (*feedback.Result, error)
	SubmitBulkFeedback(ctx context.Context, items []feedback.Feedback) (*feedback.BulkResult, error)
	AdjustChunkWeight(ctx context.Context, chunkID int64, newWeight float64, reason string) (*feedback.WeightChange, error)
}

// WorkflowSearcher runs explorative workflow searches.
type WorkflowSearcher interface {
	Search(ctx context.Context, req workflow.SearchRequest) (*workflow.SearchResponse, error)
}

// SessionQuerier reads stored training sessions.
type SessionQuerier interface {
	GetTrainingSession(ctx context.Context, id int64) (sqlc.TrainingSession, error)
	GetSessionLinks(ctx context.Context, sessionID int64) ([]sqlc.EmbeddingLink, error)
}

// Server is the HTTP server for the answerd REST API.
type Server struct {
	mux *http.ServeMux

	health    *HealthHandler
	ask       *AskHandler
	training  *TrainingHandler
	admin     *AdminHandler
	workflows *WorkflowHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(askSvc AskService, fbSvc FeedbackService, searcher WorkflowSearcher, sessions SessionQuerier, pool *pgxpool.Pool, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		health:    NewHealthHandler(pool, logger),
		ask:       NewAskHandler(askSvc, logger),
		training:  NewTrainingHandler(fbSvc, sessions, logger),
		admin:     NewAdminHandler(fbSvc, logger),
		workflows: NewWorkflowHandler(searcher, logger),
	}

	s.health.RegisterRoutes(mux)
	s.ask.RegisterRoutes(mux)
	s.training.RegisterRoutes(mux)
	s.admin.RegisterRoutes(mux)
	s.workflows.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request ID → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, requestIDMiddleware, loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
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
		slog.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
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
