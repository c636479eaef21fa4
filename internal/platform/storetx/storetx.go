// Package storetx provides the transactional boundary shared by the ledger,
// custody, and settlement services. Mint, burn, and order execution touch the
// asset store and the ledger together; running both halves inside one
// RunInTx keeps them all-or-nothing.
package storetx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"aurum/pkg/platform/tx"
)

// Runner provides a transactional boundary for store mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
//
// Boundaries compose: when a service already inside RunInTx calls into
// another service sharing the same runner (mint crediting the ledger,
// execution moving tokens and balances), the inner call joins the outer
// transaction instead of opening a new one.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type inTxKey struct{}

// joined reports whether ctx is already inside a RunInTx boundary.
func joined(ctx context.Context) bool {
	return ctx.Value(inTxKey{}) != nil
}

func markJoined(ctx context.Context) context.Context {
	return context.WithValue(ctx, inTxKey{}, struct{}{})
}

// InMemory serializes all transactional operations behind one mutex. With
// services validating every precondition before their first mutation, a
// failing operation under the lock leaves no partial state.
type InMemory struct {
	mu sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (t *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if joined(ctx) {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(markJoined(ctx))
}

// Postgres wraps fn in a SQL transaction carried through the context, so
// every store touched inside commits or rolls back as one unit.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (t *Postgres) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if joined(ctx) {
		return fn(ctx)
	}
	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(markJoined(tx.WithTx(ctx, sqlTx))); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
