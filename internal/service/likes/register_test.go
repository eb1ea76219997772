package likes_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/acquaintance/internal/app/apptest"
	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/server"
	"github.com/oggyb/acquaintance/internal/service/likes"
)

func dialLikeGraph(t *testing.T, env *apptest.Env) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := server.NewGRPCServer(env.App.Logger, env.App.Issuer, "/"+likes.ServiceName+"/",
		likes.NewRegistrar(env.App))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestGRPCLikeGraph(t *testing.T) {
	env := apptest.New(t)
	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)
	conn := dialLikeGraph(t, env)

	aliceCtx := withToken(env.Token(t, alice))
	bobCtx := withToken(env.Token(t, bob))

	out, err := call(aliceCtx, conn, likes.MethodLike, map[string]any{"likeeId": float64(bob.ID)})
	require.NoError(t, err)
	assert.True(t, out.GetFields()["liked"].GetBoolValue())
	assert.False(t, out.GetFields()["isMatch"].GetBoolValue())

	_, err = call(aliceCtx, conn, likes.MethodLike, map[string]any{"likeeId": float64(bob.ID)})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	out, err = call(bobCtx, conn, likes.MethodLike, map[string]any{"likeeId": float64(alice.ID)})
	require.NoError(t, err)
	assert.True(t, out.GetFields()["isMatch"].GetBoolValue())

	out, err = call(aliceCtx, conn, likes.MethodIsMatch, map[string]any{"userId": float64(bob.ID)})
	require.NoError(t, err)
	assert.True(t, out.GetFields()["isMatch"].GetBoolValue())

	out, err = call(bobCtx, conn, likes.MethodCountLikers, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.GetFields()["count"].GetNumberValue())
}

func TestGRPCRejectsBadRequests(t *testing.T) {
	env := apptest.New(t)
	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	conn := dialLikeGraph(t, env)

	_, err := call(context.Background(), conn, likes.MethodLike, map[string]any{"likeeId": float64(2)})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call(withToken("garbage"), conn, likes.MethodLike, map[string]any{"likeeId": float64(2)})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	aliceCtx := withToken(env.Token(t, alice))
	_, err = call(aliceCtx, conn, likes.MethodLike, map[string]any{"likeeId": "two"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(aliceCtx, conn, likes.MethodLike, map[string]any{"likeeId": float64(9999)})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCHealthIsPublic(t *testing.T) {
	env := apptest.New(t)
	conn := dialLikeGraph(t, env)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
