package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/acquaintance/internal/auth"
)

type stubVerifier map[string]auth.Subject

func (v stubVerifier) Verify(raw string) (auth.Subject, error) {
	if s, ok := v[raw]; ok {
		return s, nil
	}
	return auth.Subject{}, errors.New("bad token")
}

func TestAuthUnaryInterceptor(t *testing.T) {
	icpt := AuthUnaryInterceptor(stubVerifier{"good": {ID: 7, Username: "alice"}}, "/acquaintance.v1.")

	var seen auth.Subject
	handler := func(ctx context.Context, req any) (any, error) {
		seen, _ = auth.SubjectFromContext(ctx)
		return "ok", nil
	}
	protected := &grpc.UnaryServerInfo{FullMethod: "/acquaintance.v1.LikeGraph/Like"}

	tests := []struct {
		name   string
		header string
		code   codes.Code
	}{
		{"missing", "", codes.Unauthenticated},
		{"wrong scheme", "Basic good", codes.Unauthenticated},
		{"bad token", "Bearer nope", codes.Unauthenticated},
		{"valid", "Bearer good", codes.OK},
		{"scheme is case insensitive", "bearer good", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = auth.Subject{}
			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header))
			}
			_, err := icpt(ctx, nil, protected, handler)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.Equal(t, uint64(7), seen.ID)
			}
		})
	}

	// other services pass through untouched
	resp, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
