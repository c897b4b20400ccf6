package cache

import (
	"context"
	"encoding/json"

	"github.com/getsentry/sentry-go"
)

// DecodeValue converts a cached value back to *T. The in-memory backend hands back the
// stored pointer, the redis backend the JSON it was written as.
func DecodeValue[T any](value interface{}) (*T, bool) {
	var raw []byte
	switch v := value.(type) {
	case *T:
		return v, v != nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, false
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// startSpan returns nil when the request carries no sentry hub
func startSpan(ctx context.Context, backend, operation, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache."+operation)
	span.Description = backend + " " + operation + " " + key
	span.SetData("cache.backend", backend)
	span.SetData("cache.key", key)
	return span
}

func finishSpan(span *sentry.Span, hit bool, err error) {
	if span == nil {
		return
	}

	span.SetData("cache.hit", hit)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}
