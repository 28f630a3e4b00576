package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// TxManager frames a check-then-act sequence inside a single transaction.
// Every capacity re-check, verified-flag flip and bulk batch runs through it.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTxManager struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTxManager(db *sql.DB, logger *slog.Logger) TxManager {
	return &sqlTxManager{db: db, logger: logger}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (txErr error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.Error("transaction rollback failed",
					slog.Any("error", rbErr), slog.Any("original_error", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}
