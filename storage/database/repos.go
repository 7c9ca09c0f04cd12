// Package database provides the postgres repositories backing the core
// services, built on sqlx.
package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
)

// getExec resolves the executor for one repository call. Overrides must be
// sqlx-capable (*sqlx.DB or *sqlx.Tx); anything else falls back to the pool.
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

// runInTx runs fn inside a new transaction, unless the caller already
// supplied an executor in which case fn runs on that executor as-is.
func runInTx(ctx context.Context, db *sqlx.DB, svcExec []core.DBExecutor, fn func(ext sqlx.ExtContext) error) error {
	if len(svcExec) > 0 {
		return fn(getExec(db, svcExec))
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
