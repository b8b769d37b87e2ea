// Package app provides application initialization and dependency wiring.
//
// App is the container that holds all long-lived components: the database
// pool, the Genkit runtime, and the answer, feedback, and workflow services
// the API serves.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudvelous/answerd/internal/answer"
	"github.com/cloudvelous/answerd/internal/config"
	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// App is the core application container.
type App struct {
	Config *config.Config

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool
	Queries  *sqlc.Queries

	// Domain services
	Answer    *answer.Service
	Feedback  *feedback.Engine
	Workflows *workflow.Learner
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		slog.Info("database pool closed")
	}

	return nil
}
