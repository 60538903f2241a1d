package database

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback on a context that
	// was not produced by Begin.
	ErrNoTransaction = errors.New("no transaction in context")

	// ErrTransactionDone is returned when a finished unit of work is committed
	// or joined again.
	ErrTransactionDone = errors.New("transaction already finished")
)

type scopeKey struct{}

// txScope is the unit of work a context belongs to. Joined scopes share the
// transaction and its state with the scope that began it; only that scope
// ends the transaction.
type txScope struct {
	tx    Transaction
	owner bool
	state *txState
}

type txState struct {
	mu   sync.Mutex
	done bool
}

// finish marks the transaction ended and reports whether this call did it.
func (s *txState) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done = true
	return true
}

func (s *txState) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func scopeFrom(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// ContextWithTransaction returns a context whose repository calls run inside
// tx. The caller keeps ownership of tx and must end it itself.
func ContextWithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, scopeKey{}, txScope{tx: tx, state: &txState{}})
}

// TransactionFromContext returns the live transaction carried by ctx.
func TransactionFromContext(ctx context.Context) (Transaction, bool) {
	scope, ok := scopeFrom(ctx)
	if !ok || scope.state.finished() {
		return nil, false
	}
	return scope.tx, true
}

// ExecutorFromContext returns the transaction carried by ctx, or conn.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx, ok := TransactionFromContext(ctx); ok {
		return tx
	}
	return conn
}

// GenericUnitOfWork implements application.UnitOfWork on a Connection.
// A Begin on a context that already carries a unit of work joins it, so a
// command running inside another command commits with its caller.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one carried by ctx.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if scope, ok := scopeFrom(ctx); ok {
		if scope.state.finished() {
			return nil, ErrTransactionDone
		}
		scope.owner = false
		return context.WithValue(ctx, scopeKey{}, scope), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, scopeKey{}, txScope{tx: tx, owner: true, state: &txState{}}), nil
}

// Commit ends the transaction when ctx owns it. Joined scopes return nil.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		return nil
	}
	if !scope.state.finish() {
		return ErrTransactionDone
	}
	return scope.tx.Commit(ctx)
}

// Rollback discards the transaction when ctx owns it. Rolling back a
// finished unit of work is a no-op.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner || !scope.state.finish() {
		return nil
	}
	return scope.tx.Rollback(context.WithoutCancel(ctx))
}
