// Package sqlxdb is the Postgres storage, written with sqlx over lib/pq.
package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// txKey scopes a transaction to the DB that opened it.
type txKey struct {
	db *DB
}

type DB struct {
	db *sqlx.DB
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

func New(db *sql.DB) *DB {
	return &DB{db: sqlx.NewDb(db, "postgres")}
}

func (db *DB) txFrom(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{db}).(*sqlx.Tx)
	return tx, ok
}

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := db.txFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{db}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// exec returns the transaction of ctx, or the pool.
func (db *DB) exec(ctx context.Context) sqlx.ExtContext {
	if tx, ok := db.txFrom(ctx); ok {
		return tx
	}
	return db.db
}

// trapErr maps "no rows" to core.ErrNotFound and integrity violations to *core.ConstraintError.
func trapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23514", "23503", "23502": // unique, check, foreign key, not null
			return core.NewConstraintError(pqErr.Constraint, pqErr)
		case "22P02": // malformed uuid
			return core.NewConstraintError(pqErr.Code.Name(), pqErr)
		}
	}
	return errors.Wrap(err, msg)
}

// validID filters out ids that can never match a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func mustAffect(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	q := " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			q += ", "
		}
		q += ord.String()
	}
	return q + ", id"
}
