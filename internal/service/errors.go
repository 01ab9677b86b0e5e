package service

import (
	"context"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// storeError translates a repository error into an AppError.
func storeError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// degraded logs a read failure that is answered with an empty result.
func degraded(ctx context.Context, op string, err error, attrs ...any) {
	args := append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)
	middleware.Logger.WarnContext(ctx, "read degraded to empty result", args...)
}
