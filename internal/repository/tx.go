package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner scopes work to a transaction. WithinTx opens the outer transaction;
// WithinSavepoint nests a savepoint inside it so one failing item can be
// rolled back without aborting its siblings.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type txCtxKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return tx, ok
}

// conn returns the active transaction when one is on the context, otherwise
// the pool itself.
func conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return pool
}

type pgxTxRunner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTxRunner(pool *pgxpool.Pool, logger *slog.Logger) TxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgxTxRunner{pool: pool, logger: logger}
}

func (r *pgxTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Error("tx rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *pgxTxRunner) WithinSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return fmt.Errorf("savepoint requires an active transaction")
	}
	// pgx nests Begin as SAVEPOINT inside an open transaction
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if err := fn(withTx(ctx, sp)); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			r.logger.Error("savepoint rollback failed", "error", rbErr)
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
