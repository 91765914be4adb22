package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodclose/internal/usecase"
)

type pgxPool interface {
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManager opens the transactions vouchers, allocation history and debt
// allocations are written in.
type TxManager struct {
	pool        pgxPool
	opts        pgx.TxOptions
	lockTimeout time.Duration
}

// NewTxManager runs transactions at isoLevel. An empty level uses the server default.
func NewTxManager(pool *pgxpool.Pool, isoLevel pgx.TxIsoLevel) *TxManager {
	return newTxManagerWithPool(pool, pgx.TxOptions{IsoLevel: isoLevel})
}

func newTxManagerWithPool(pool pgxPool, opts pgx.TxOptions) *TxManager {
	return &TxManager{pool: pool, opts: opts}
}

// WithLockTimeout bounds how long a transaction waits on a row lock. A
// timeout surfaces as SQLSTATE 55P03, which the Retrier treats as transient.
func (m *TxManager) WithLockTimeout(d time.Duration) *TxManager {
	m.lockTimeout = d
	return m
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		value := fmt.Sprintf("%dms", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", value); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx is a usecase.Transaction backed by pgx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit, so callers can always defer it.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxTx exposes the pgx transaction to sqlc queries.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
