package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"
)

// stepLog records the writes issued inside a transaction, in order.
type stepLog struct {
	steps []string
}

func (l *stepLog) add(format string, args ...interface{}) {
	l.steps = append(l.steps, fmt.Sprintf(format, args...))
}

func (l *stepLog) applied() bool { return len(l.steps) > 0 }

// txRunner executes a unit of work inside one database transaction.
type txRunner struct {
	db      repositories.Database
	timeout time.Duration
}

type txFunc func(ctx context.Context, tx repositories.Tx, steps *stepLog) error

// run commits when fn succeeds and rolls back otherwise. If writes were issued
// and the outcome of the rollback or commit is unknown, the caller gets a
// *PartialFailureError listing the writes.
func (r txRunner) run(ctx context.Context, op string, sess models.Session, fn txFunc) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return persistenceErr(op+": begin transaction", err, nil)
	}

	steps := &stepLog{}
	if err := fn(ctx, tx, steps); err != nil {
		rbErr := tx.Rollback()
		// ErrTxDone: database/sql already rolled back after context cancellation.
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && steps.applied() {
			return r.partialFailure(op, sess, steps, fmt.Errorf("%w (rollback failed: %v)", err, rbErr))
		}
		return persistenceErr(op, err, nil)
	}

	if err := tx.Commit(); err != nil {
		if !errors.Is(err, sql.ErrTxDone) && steps.applied() {
			return r.partialFailure(op, sess, steps, fmt.Errorf("commit: %w", err))
		}
		return persistenceErr(op+": commit", err, nil)
	}
	return nil
}

func (r txRunner) partialFailure(op string, sess models.Session, steps *stepLog, cause error) error {
	pf := &PartialFailureError{Op: op, StoreID: sess.StoreID, Steps: steps.steps, Cause: cause}
	utils.LogError(cause, "Partial failure, manual reconciliation required", map[string]interface{}{
		"operation": op,
		"store_id":  sess.StoreID,
		"user_id":   sess.UserID,
		"steps":     steps.steps,
	})
	return pf
}
