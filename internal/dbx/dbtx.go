// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// helpers to run functions inside a transaction, and driver error
// classification.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// TxRunner runs a unit of work against a store handle that lives exactly as
// long as the call.
type TxRunner interface {
	// RunInTx runs fn with a handle scoped to this call. The handle is
	// released on every exit path.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
	// Atomic reports whether a failed fn undoes the writes fn already made.
	Atomic() bool
}

// SQLTxRunner runs units of work in database/sql transactions.
type SQLTxRunner struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLTxRunner returns a TxRunner backed by db. opts may be nil.
func NewSQLTxRunner(db *sql.DB, opts *sql.TxOptions) *SQLTxRunner {
	return &SQLTxRunner{db: db, opts: opts}
}

func (r *SQLTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, r.db, r.opts, fn)
}

func (r *SQLTxRunner) Atomic() bool { return true }

// DirectRunner calls fn without a transaction. Used with in-memory stores,
// where every repository call is individually atomic but a sequence of calls
// is not.
type DirectRunner struct{}

func (DirectRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, nil)
}

func (DirectRunner) Atomic() bool { return false }
