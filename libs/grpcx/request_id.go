package grpcx

import (
	"context"

	"github.com/md-rashed-zaman/bookora/libs/httpx"
)

// RequestIDMetadataKey carries the request id over gRPC metadata (lowercase per gRPC convention).
const RequestIDMetadataKey = "x-request-id"

// RequestIDFromContext shares the HTTP context key so ids flow across both transports.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return httpx.ContextWithRequestID(ctx, id)
}
