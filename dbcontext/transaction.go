package dbcontext

import (
	"context"
	"errors"
)

// Begin opens a transaction. It fails with *StateError when one is
// already active; the flag-plus-lock acts as a mutex, not a queue, so
// concurrent callers fail fast instead of blocking. If the engine
// rejects BEGIN the flag is rolled back.
func (c *DatabaseContext) Begin(ctx context.Context) error {
	c.mu.Lock()
	if c.txActive {
		c.mu.Unlock()
		return &StateError{Op: "Begin", Message: "transaction already active"}
	}
	c.txActive = true
	c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		c.mu.Lock()
		c.txActive = false
		c.mu.Unlock()
		return wrapEngine("BEGIN", err)
	}

	c.mu.Lock()
	c.tx = tx
	c.mu.Unlock()

	c.logger.Debug("transaction begun")
	return nil
}

// Commit commits the active transaction. The active flag is cleared
// even when the engine commit fails, so a failed commit cannot leave
// the context permanently stuck in transaction mode.
func (c *DatabaseContext) Commit(ctx context.Context) error {
	c.mu.Lock()
	if !c.txActive {
		c.mu.Unlock()
		return &StateError{Op: "Commit", Message: "no transaction active"}
	}
	tx := c.tx
	c.mu.Unlock()

	defer c.clearTransaction()

	if err := tx.Commit(); err != nil {
		return wrapEngine("COMMIT", err)
	}
	c.logger.Debug("transaction committed")
	return nil
}

// Rollback rolls back the active transaction. Like Commit, the active
// flag is always cleared.
func (c *DatabaseContext) Rollback(ctx context.Context) error {
	c.mu.Lock()
	if !c.txActive {
		c.mu.Unlock()
		return &StateError{Op: "Rollback", Message: "no transaction active"}
	}
	tx := c.tx
	c.mu.Unlock()

	defer c.clearTransaction()

	if err := tx.Rollback(); err != nil {
		return wrapEngine("ROLLBACK", err)
	}
	c.logger.Debug("transaction rolled back")
	return nil
}

func (c *DatabaseContext) clearTransaction() {
	c.mu.Lock()
	c.txActive = false
	c.tx = nil
	c.mu.Unlock()
}

// InTransaction runs fn inside a transaction. When a transaction is
// already active on this context the operation runs inline: nesting is
// flattened by the boolean guard, never by issuing a second BEGIN,
// which keeps composed call chains working. Otherwise a transaction is
// opened, committed on success, and rolled back when fn fails.
// Cancellation propagates immediately without being wrapped.
func (c *DatabaseContext) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	active := c.txActive
	c.mu.Unlock()

	if active {
		return fn(ctx)
	}

	if err := c.Begin(ctx); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	return c.Commit(ctx)
}
