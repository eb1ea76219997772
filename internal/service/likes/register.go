package likes

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/auth"
	apperr "github.com/oggyb/acquaintance/internal/errors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "acquaintance.v1.LikeGraph"

// Full method names, usable with grpc.ClientConn.Invoke.
const (
	MethodLike        = "/" + ServiceName + "/Like"
	MethodIsMatch     = "/" + ServiceName + "/IsMatch"
	MethodCountLikers = "/" + ServiceName + "/CountLikers"
)

// LikeGraphServer is the server API for the LikeGraph service.
// Requests and responses are google.protobuf.Struct messages.
type LikeGraphServer interface {
	Like(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IsMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountLikers(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// LikeGraphServiceDesc describes the LikeGraph service for grpc.Server.RegisterService.
var LikeGraphServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LikeGraphServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Like", Handler: unaryHandler(MethodLike, LikeGraphServer.Like)},
		{MethodName: "IsMatch", Handler: unaryHandler(MethodIsMatch, LikeGraphServer.IsMatch)},
		{MethodName: "CountLikers", Handler: unaryHandler(MethodCountLikers, LikeGraphServer.CountLikers)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "acquaintance/v1/like_graph.proto",
}

type methodFunc func(LikeGraphServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call methodFunc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LikeGraphServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LikeGraphServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Registrar ties the LikeGraph service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the LikeGraph service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the LikeGraph implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&LikeGraphServiceDesc, &GRPCService{svc: NewLikesService(r.appCtx)})
}

// GRPCService adapts Service to LikeGraphServer. The caller identity comes from
// the auth interceptor, never from the payload.
type GRPCService struct {
	svc *Service
}

// Like expects {"likeeId": n} and answers {"liked": true, "isMatch": bool}.
func (g *GRPCService) Like(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	likeeID, err := uintField(req, "likeeId")
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}

	res, err := g.svc.Like(ctx, caller, caller, likeeID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return structpb.NewStruct(map[string]any{"liked": true, "isMatch": res.IsMatch})
}

// IsMatch expects {"userId": n} and answers {"isMatch": bool} for the caller and n.
func (g *GRPCService) IsMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	other, err := uintField(req, "userId")
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}

	ok, err := g.svc.IsMatch(ctx, caller, other)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return structpb.NewStruct(map[string]any{"isMatch": ok})
}

// CountLikers expects an optional {"userId": n}, defaulting to the caller, and answers {"count": n}.
func (g *GRPCService) CountLikers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	userID := caller
	if _, ok := req.GetFields()["userId"]; ok {
		if userID, err = uintField(req, "userId"); err != nil {
			return nil, apperr.GRPCStatus(err)
		}
	}

	count, err := g.svc.CountLikers(ctx, userID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return structpb.NewStruct(map[string]any{"count": count})
}

func callerID(ctx context.Context) (uint64, error) {
	s, ok := auth.SubjectFromContext(ctx)
	if !ok {
		return 0, apperr.Unauthorized("missing caller identity")
	}
	return s.ID, nil
}

func uintField(req *structpb.Struct, name string) (uint64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, apperr.Validation(fmt.Sprintf("%s is required", name))
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 1 || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue > math.MaxInt64 {
		return 0, apperr.Validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return uint64(n.NumberValue), nil
}
