package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrCheckViolation is returned when a row would break a CHECK constraint,
	// e.g. inventory.available_qty >= 0.
	ErrCheckViolation = errors.New("check constraint violated")

	// ErrForeignKey is returned when a referenced row is missing or still referenced.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrConditionFailed is returned when a guarded update matched an existing row
	// whose current state did not satisfy the guard.
	ErrConditionFailed = errors.New("conditional update did not apply")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, so repository methods can
// run inside a transaction or directly against the pool.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Tx is an open transaction. *sql.Tx satisfies it.
type Tx interface {
	SQLExecutor
	Commit() error
	Rollback() error
}

// Database is the pool used outside transactions and the source of new ones.
type Database interface {
	SQLExecutor
	Begin(ctx context.Context) (Tx, error)
}

type sqlDatabase struct {
	*sql.DB
}

// NewDatabase wraps a connection pool.
func NewDatabase(db *sql.DB) Database {
	return &sqlDatabase{DB: db}
}

func (d *sqlDatabase) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %w", ErrDatabaseError, err)
	}
	return tx, nil
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// mapError translates driver errors into the repository sentinels.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		case "check_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrCheckViolation, pqErr.Message, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrForeignKey, pqErr.Message, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrDatabaseError, op, err)
}

// appendPagination adds LIMIT/OFFSET placeholders starting at argCounter.
func appendPagination(qb *strings.Builder, args []interface{}, argCounter, page, pageSize int) []interface{} {
	if pageSize <= 0 {
		return args
	}
	qb.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
	args = append(args, pageSize)
	argCounter++
	if page > 1 {
		qb.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
		args = append(args, (page-1)*pageSize)
	}
	return args
}

// dayBounds parses YYYY-MM-DD into [start, next day).
func dayBounds(date string) (start, end time.Time, ok bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return t, t.AddDate(0, 0, 1), true
}

// requireAffected turns a write that matched no rows into ErrNotFound.
func requireAffected(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: checking rows affected: %w", ErrDatabaseError, op, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
