package grpcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/queuedesk/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryClientRequestIDInterceptor forwards the request id of an inbound HTTP
// or gRPC call.
func UnaryClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		id := httpx.RequestIDFromContext(ctx)
		if id == "" {
			id = RequestIDFromContext(ctx)
		}
		if id != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, RequestIDMetadataKey, id)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// UnaryServerRequestIDInterceptor stores the inbound request id (or a new
// one) in the context for both grpcx and httpx readers and echoes it in the
// response header.
func UnaryServerRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = NewRequestID()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, id))
		ctx = httpx.ContextWithRequestID(WithRequestID(ctx, id), id)
		return handler(ctx, req)
	}
}

// UnaryServerLogInterceptor logs each call and converts panics into
// codes.Internal.
func UnaryServerLogInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in grpc handler", "method", info.FullMethod, "panic", rec)
				err = status.Error(codes.Internal, "internal error")
			}
			level := slog.LevelInfo
			if err != nil {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "grpc request",
				"request_id", RequestIDFromContext(ctx),
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		return handler(ctx, req)
	}
}
