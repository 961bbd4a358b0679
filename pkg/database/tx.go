package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Transactor runs fn inside one database transaction. The transaction
// travels in the context handed to fn; repositories pick it up through Conn.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTx runs fn in a serializable transaction. A call made while a
// transaction is already in ctx joins it. Serialization failures and
// deadlocks restart fn from scratch, so fn must not have effects outside
// the transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = db.retryDelay
	b.MaxInterval = 16 * db.retryDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := db.runTx(ctx, fn)
		if err != nil && !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(max(db.txRetries, 0)+1)))

	if IsRetryable(err) {
		return fmt.Errorf("transaction retries exhausted: %w", err)
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// TxFromContext returns the transaction carried by ctx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Conn returns the transaction in ctx, falling back to db.
func Conn(ctx context.Context, db Querier) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

func IsUniqueViolation(err error) bool {
	return hasSQLState(err, sqlStateUniqueViolation)
}

// IsRetryable reports whether err aborted a transaction that may succeed when rerun.
func IsRetryable(err error) bool {
	return hasSQLState(err, sqlStateSerializationFailure) || hasSQLState(err, sqlStateDeadlockDetected)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
