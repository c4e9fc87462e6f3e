package sqlutil

import (
	"context"
	"database/sql"
)

// Run executes fn inside a *sql.Tx with the given options.
// If fn returns an error the tx rolls back, else it commits.
func Run(
	ctx context.Context,
	db *sql.DB,
	opts *sql.TxOptions,
	fn func(tx *sql.Tx) error,
) error {
	tx, err := db.BeginTx(ctx, opts) // BEGIN
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() // ROLLBACK
		return err
	}
	return tx.Commit() // COMMIT
}

// Serializable returns the options for a serializable transaction.
func Serializable() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}
