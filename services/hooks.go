package services

import (
	"context"
	"log/slog"
)

// postCommitHook — отложенный побочный эффект, выполняемый после коммита
// основной транзакции: уведомления, проверка ачивок, продвижение стадии.
// Ошибка хука логируется и никогда не доходит до вызывающего.
type postCommitHook struct {
	Name string
	Run  func(ctx context.Context) error
}

// runPostCommit executes hooks in order. Each hook is independent: a failure
// is logged and the remaining hooks still run.
func runPostCommit(ctx context.Context, logger *slog.Logger, hooks []postCommitHook) {
	for _, hook := range hooks {
		if err := hook.Run(ctx); err != nil {
			logger.Error("post-commit hook failed",
				slog.String("hook", hook.Name),
				slog.Any("error", err),
			)
		}
	}
}
