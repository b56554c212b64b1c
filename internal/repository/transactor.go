package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrTransient marks failures that are safe to retry as a whole: nothing
	// was committed.
	ErrTransient = errors.New("transient storage failure")
	// ErrLockNotAvailable is returned by NOWAIT locks that lost the race.
	ErrLockNotAvailable = errors.New("row lock not available")
	// ErrValueOutOfRange is returned when postgres rejects a value that does
	// not fit its column.
	ErrValueOutOfRange = errors.New("value out of range")
)

const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeNumericOutOfRange    = "22003"
)

type TransientError struct {
	Code string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient storage failure (%s): %v", e.Code, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool {
	if target == ErrTransient {
		return true
	}
	return target == ErrLockNotAvailable && e.Code == codeLockNotAvailable
}

// Translate classifies postgres errors by SQLSTATE. Anything not known to be
// transient or out of range is returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == codeLockNotAvailable,
		pgErr.Code == codeSerializationFailure,
		pgErr.Code == codeDeadlockDetected,
		pgErr.Code == codeQueryCanceled,
		strings.HasPrefix(pgErr.Code, "08"):
		return &TransientError{Code: pgErr.Code, Err: err}
	case pgErr.Code == codeNumericOutOfRange:
		return fmt.Errorf("%w: %s", ErrValueOutOfRange, pgErr.Message)
	}
	return err
}

// Transactor runs fn inside one database transaction: everything fn writes
// through tx commits together or is rolled back together.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return Translate(t.db.WithContext(ctx).Transaction(fn))
}
