package jaeger

import (
	"context"

	"github.com/opentracing/opentracing-go"
)

// StartSpanFromContext opens a client span tagged with the outgoing request.
func StartSpanFromContext(ctx context.Context, spanName string, req interface{}) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, spanName)

	span.SetTag("request", req)
	span.LogKV("event", "request", "value", req)
	return span, ctx
}
