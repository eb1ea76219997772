package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/acquaintance/internal/config"
)

// Registrar attaches one gRPC service implementation to a server.
type Registrar interface {
	Register(s *grpc.Server)
}

// GRPCServer wraps grpc.Server with the standard health service.
type GRPCServer struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// NewGRPCServer builds a gRPC server and registers all provided services.
// Methods under protectedPrefix require a bearer token checked by verifier.
func NewGRPCServer(log *slog.Logger, verifier TokenVerifier, protectedPrefix string, registrars ...Registrar) *GRPCServer {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingUnaryInterceptor(log),
			AuthUnaryInterceptor(verifier, protectedPrefix),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return &GRPCServer{srv: grpcServer, health: hs, log: log}
}

// Serve blocks serving on lis until Stop.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.log.Info("grpc server listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// ListenAndServe listens on the configured address and serves.
func (s *GRPCServer) ListenAndServe(cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Stop marks the server NOT_SERVING and drains in-flight calls until ctx is done.
func (s *GRPCServer) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
	}
}
