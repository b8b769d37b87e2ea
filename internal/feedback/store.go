package feedback

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// Tx is a transaction scope for feedback processing. Begin on a Tx opens a
// nested transaction (a savepoint on PostgreSQL), which is how bulk
// feedback isolates per-item failures from the outer transaction.
//
// Tx embeds workflow.Querier so the workflow learner can write its vectors
// inside the same transaction as the feedback that triggered them.
type Tx interface {
	workflow.Querier

	SetSessionFeedback(ctx context.Context, arg sqlc.SetSessionFeedbackParams) error
	CreateTrainingFeedback(ctx context.Context, arg sqlc.CreateTrainingFeedbackParams) (sqlc.TrainingFeedback, error)
	GetSessionLink(ctx context.Context, arg sqlc.GetSessionLinkParams) (sqlc.EmbeddingLink, error)
	SetLinkUsefulness(ctx context.Context, arg sqlc.SetLinkUsefulnessParams) error
	GetKnowledgeChunk(ctx context.Context, id int64) (sqlc.KnowledgeChunk, error)
	UpdateChunkWeight(ctx context.Context, arg sqlc.UpdateChunkWeightParams) (sqlc.KnowledgeChunk, error)

	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens feedback transactions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// PgxStore implements Store on a pgx connection pool.
type PgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore creates a Store backed by the given pool.
func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

// Begin starts a top-level transaction.
func (s *PgxStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &pgxTx{Queries: sqlc.New(tx), tx: tx}, nil
}

// pgxTx adapts pgx.Tx to the Tx interface. Query methods come from the
// embedded sqlc.Queries bound to this transaction.
type pgxTx struct {
	*sqlc.Queries
	tx pgx.Tx
}

// Begin opens a nested transaction. pgx implements this as SAVEPOINT, so
// rolling back the returned Tx only discards work done inside it.
func (t *pgxTx) Begin(ctx context.Context) (Tx, error) {
	inner, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning nested transaction: %w", err)
	}
	return &pgxTx{Queries: sqlc.New(inner), tx: inner}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
