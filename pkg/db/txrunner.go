package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
)

// TxRunner is the unit-of-work boundary for the owning service: CRUD services
// run the business mutation and the outbox insert inside one closure, and the
// runner decides whether that closure gets real transactional guarantees.
//
// The capability is declared at construction. Stores that cannot provide
// transactions (the in-memory sqlite double used in tests) get a pass-through
// mode that runs the closure on the raw connection; every such run is logged
// as reduced-guarantee so it can never silently stand in for the real thing.
type TxRunner struct {
	conn          *gorm.DB
	transactional bool
	logg          *logger.Logger
}

// NewTxRunner builds a runner for the given connection. transactional must be
// true on all production paths.
func NewTxRunner(conn *gorm.DB, transactional bool, logg *logger.Logger) (*TxRunner, error) {
	if conn == nil {
		return nil, errors.New("db connection is required")
	}
	return &TxRunner{conn: conn, transactional: transactional, logg: logg}, nil
}

// Transactional reports whether the runner provides atomicity.
func (r *TxRunner) Transactional() bool {
	return r.transactional
}

// WithTx executes fn atomically when the runner is transactional: on error or
// panic everything rolls back, on success everything commits. In
// non-transactional mode fn runs directly against the connection and partial
// effects can be observed on failure.
func (r *TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !r.transactional {
		if r.logg != nil {
			r.logg.Warn(ctx, "executing without transaction: atomicity not guaranteed")
		}
		return fn(r.conn.WithContext(ctx))
	}

	tx := r.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
