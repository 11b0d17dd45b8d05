package manager

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nicolas-van/fql/internal/driver"
)

type sessionKey struct{}

// WithSession opens one transaction against db, stores it on ctx, and
// runs fn. The transaction commits if fn returns nil and rolls back
// otherwise (including on panic, which is re-raised after rollback).
// Only one session may be open per ctx at a time — this replaces the
// ambient werkzeug.local connection proxy
// original_source/asgard/table_manager.py used, with an explicit
// context.Context carrying the transaction instead.
func WithSession(ctx context.Context, db driver.DB, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(sessionKey{}).(driver.Tx); ok {
		return ErrNestedSession
	}

	log := logrus.WithField("component", "manager.session")

	tx, err := db.Begin(ctx)
	if err != nil {
		log.WithError(err).Error("failed to begin session")
		return err
	}
	sessCtx := context.WithValue(ctx, sessionKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			log.Error("session rolled back after panic")
			panic(p)
		}
	}()

	if err = fn(sessCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("rollback failed after session error")
		} else {
			log.WithError(err).Debug("session rolled back")
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		log.WithError(err).Error("commit failed")
		return err
	}
	return nil
}

func txFromContext(ctx context.Context) (driver.Tx, error) {
	tx, ok := ctx.Value(sessionKey{}).(driver.Tx)
	if !ok {
		return nil, persistenceErrorf("no session is open on this context; call WithSession first")
	}
	return tx, nil
}
