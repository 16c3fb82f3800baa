// Package service implements the thread, user and community operations on
// top of an injected repository.Store.
package service

import (
	"context"
	"fmt"
	"time"

	"threads/internal/cache"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/observability"
	"threads/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ProfileEditPath is the only path for which UpdateUser publishes a
// revalidation event.
const ProfileEditPath = "/profile/edit"

// Revalidator evicts cached views and announces that path is stale.
type Revalidator interface {
	Revalidate(ctx context.Context, path string, keys ...string)
}

// connect makes sure the store is usable before any repository call.
func connect(ctx context.Context, store repository.Store) error {
	if err := store.EnsureConnected(ctx); err != nil {
		return models.NewStoreError(err)
	}
	if !store.Connected() {
		return models.NewConnectionUnavailableError()
	}
	return nil
}

// revalidate evicts keys and, when path is set, publishes a revalidation
// event. Without a Revalidator only the local cache is touched.
func revalidate(ctx context.Context, r Revalidator, path string, keys ...string) {
	if r == nil {
		cache.Invalidate(ctx, keys...)
		return
	}
	r.Revalidate(ctx, path, keys...)
}

// operation records span, metrics and failure logs for one service call.
type operation struct {
	name  string
	start time.Time
	span  *observability.Span
}

func startOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (*operation, context.Context) {
	span, ctx := observability.NewSpan(ctx, "service."+name)
	span.AddAttributes(attrs...)
	return &operation{name: name, start: time.Now(), span: span}, ctx
}

// finish closes the span. Failures are counted by error code; store and
// internal failures are logged, expected client errors only at debug.
func (o *operation) finish(ctx context.Context, err error) {
	defer o.span.End()

	result := "ok"
	if err != nil {
		result = models.ErrorCode(err)
		if result == "" {
			result = models.CodeInternal
		}
		o.span.SetError(err)

		switch result {
		case models.CodeNotFound, models.CodeValidation, models.CodeConflict, models.CodeUnauthorized:
			middleware.Logger.DebugContext(ctx, "operation rejected", "operation", o.name, "code", result, "error", err)
		default:
			middleware.Logger.ErrorContext(ctx, "operation failed",
				"operation", o.name, "code", result, "error", err, "trace_id", o.span.TraceID())
		}
	}
	observability.ObserveOperation(o.name, result, o.start)
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return models.NewValidationError(err.Error())
}

// wrap prefixes err with msg while keeping the AppError in the chain.
func wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
