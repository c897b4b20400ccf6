package mongo

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// StartRepositorySpan creates a span for a repository operation.
// Returns nil when there is no sentry hub in the context.
func StartRepositorySpan(ctx context.Context, repository, operation string, params map[string]interface{}) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "repository."+repository+"."+operation)
	span.Description = "repository." + repository + "." + operation
	span.Op = "db.mongo"
	span.SetData("repository", repository)
	span.SetData("operation", operation)
	for k, v := range params {
		span.SetData(k, v)
	}
	return span
}

func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}

func SetSpanError(span *sentry.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.Status = sentry.SpanStatusInternalError
	span.SetData("error", err.Error())
}

func SetSpanSuccess(span *sentry.Span) {
	if span != nil {
		span.Status = sentry.SpanStatusOK
	}
}
