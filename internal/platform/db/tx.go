package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	DBTxKey   contextKey = "db_tx"
	DBConnKey contextKey = "db_conn"
)

// TxFromContext returns the transaction carried by ctx, or nil when the
// caller is not inside RunInTx.
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(DBTxKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// ConnFromContext returns a dedicated connection carried by ctx, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	if conn, ok := ctx.Value(DBConnKey).(*pgxpool.Conn); ok {
		return conn
	}
	return nil
}

// TxRunner runs a function inside a database transaction. Services depend
// on this interface so tests can substitute a passthrough.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type poolTxRunner struct{ pool *pgxpool.Pool }

// NewTxRunner returns a TxRunner backed by the connection pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return poolTxRunner{pool: pool}
}

func (r poolTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return RunInTx(ctx, r.pool, fn)
}

// RunInTx executes fn inside a single database transaction. The transaction
// is placed on the context under DBTxKey so that repository methods resolve
// it instead of the pool; nested calls reuse the outer transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, DBTxKey, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
