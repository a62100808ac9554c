package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	custom_error "equipment/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
)

type Repository struct {
	DB            *sql.DB
	GoquDBWrapper *goqu.Database
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		DB:            db,
		GoquDBWrapper: goqu.New("postgres", db),
	}
}

// WithTransaction runs fn in a transaction bound to ctx. The transaction is
// rolled back when fn returns an error, panics, or ctx is cancelled before
// commit.
func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return WrapError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = WrapError("commit transaction", commitErr)
		}
	}()

	err = fn(tx)
	return
}

const queryCanceled = "57014"

// SetLockTimeout bounds how long row locks taken later in tx may wait.
func SetLockTimeout(ctx context.Context, tx *goqu.TxDatabase, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return WrapError("set lock timeout", err)
	}
	return nil
}

// WrapError converts driver errors into the typed errors of pkg/errors.
// Errors that are already typed pass through untouched.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if custom_error.KindOf(err) != custom_error.KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &custom_error.ConcurrencyTimeoutError{Op: op, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return custom_error.WrapDBError(op, string(pqErr.Code), err)
	}

	return custom_error.WrapDBError(op, "", err)
}

// WrapLockError is WrapError for statements that wait on row locks. When the
// caller's context ended while waiting, the driver reports a cancelled query;
// that is reported as a lock wait timeout.
func WrapLockError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == queryCanceled {
			return &custom_error.ConcurrencyTimeoutError{Op: op, Err: errors.Join(ctx.Err(), err)}
		}
		if errors.Is(err, context.Canceled) {
			return &custom_error.ConcurrencyTimeoutError{Op: op, Err: err}
		}
	}
	return WrapError(op, err)
}
