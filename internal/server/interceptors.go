package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/coolmes833/swapskills/internal/api"
	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/logger"
)

// exempt reports whether fullMethod is callable without a session: sign-up,
// sign-in and the health/reflection services.
func exempt(fullMethod string) bool {
	if api.PublicMethods[fullMethod] {
		return true
	}
	for _, prefix := range []string{"/grpc.health.v1.", "/grpc.reflection."} {
		if strings.HasPrefix(fullMethod, prefix) {
			return true
		}
	}
	return false
}

// authenticate turns the bearer token of ctx into an auth.Session on ctx.
func authenticate(ctx context.Context, tokens *auth.Tokens) (context.Context, error) {
	raw, ok := api.TokenFromIncoming(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	sess, err := tokens.Parse(raw)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	ctx = logger.IntoContext(ctx, logger.FromContext(ctx, nil).With("user", sess.UserID))
	return auth.WithSession(ctx, sess), nil
}

// AuthUnary requires a valid session token on every non-exempt unary call.
func AuthUnary(tokens *auth.Tokens) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if exempt(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, tokens)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStream is AuthUnary for streaming calls.
func AuthStream(tokens *auth.Tokens) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if exempt(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), tokens)
		if err != nil {
			return err
		}
		return handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
	}
}

// contextStream overrides the context of a wrapped stream.
type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }

// LoggingUnary logs every call with its code and duration.
func LoggingUnary(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = logger.IntoContext(ctx, log.With("method", info.FullMethod))
		resp, err := handler(ctx, req)
		logCall(log, info.FullMethod, start, err)
		return resp, err
	}
}

func LoggingStream(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx := logger.IntoContext(ss.Context(), log.With("method", info.FullMethod))
		err := handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
		logCall(log, info.FullMethod, start, err)
		return err
	}
}

func logCall(log *slog.Logger, method string, start time.Time, err error) {
	code := status.Code(err)
	attrs := []any{"method", method, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK, codes.Canceled:
		log.Debug("rpc", attrs...)
	case codes.Internal, codes.Unknown, codes.DataLoss:
		log.Error("rpc", append(attrs, "err", err)...)
	default:
		log.Info("rpc", append(attrs, "err", err)...)
	}
}

// RecoveryUnary turns handler panics into Internal errors.
func RecoveryUnary(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func RecoveryStream(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in stream handler", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(srv, ss)
	}
}
