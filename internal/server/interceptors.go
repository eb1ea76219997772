package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/logger"
)

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (auth.Subject, error)
}

// LoggingUnaryInterceptor attaches a request-scoped logger and logs each call once.
func LoggingUnaryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLog := log.With("request_id", uuid.NewString(), "method", info.FullMethod)
		ctx = logger.IntoContext(ctx, reqLog)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		}
		reqLog.Log(ctx, level, "grpc request", "code", code.String(), "latency", time.Since(start))
		return resp, err
	}
}

// AuthUnaryInterceptor requires "authorization: Bearer <token>" on every method
// under protectedPrefix. Other services (health) pass through.
func AuthUnaryInterceptor(verifier TokenVerifier, protectedPrefix string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, protectedPrefix) {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		raw, ok := bearerToken(md.Get("authorization"))
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		subject, err := verifier.Verify(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(auth.ContextWithSubject(ctx, subject), req)
	}
}

func bearerToken(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	scheme, token, ok := strings.Cut(values[0], " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
