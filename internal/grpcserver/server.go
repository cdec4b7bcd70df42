// Package grpcserver implements the TrackerService gRPC server.
//
// It delegates all business logic to kanban.Service and handles
// only the gRPC transport concerns: metadata extraction, error mapping,
// and type conversion between the domain model and wire messages.
//
// Messages are google.protobuf.Struct values carrying the same JSON shapes as
// the HTTP API, so the Gateway can forward bodies without a generated stub.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobtracker/tracker-service/internal/kanban"
)

// Full method names of the TrackerService RPCs.
const (
	ServiceName            = "jobtracker.tracker.v1.TrackerService"
	ListApplicationsMethod = "/" + ServiceName + "/ListApplications"
	GetApplicationMethod   = "/" + ServiceName + "/GetApplication"
	MoveApplicationMethod  = "/" + ServiceName + "/MoveApplication"
)

// TrackerServer is the server API for TrackerService.
type TrackerServer interface {
	ListApplications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MoveApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes TrackerService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListApplications", Handler: unary(ListApplicationsMethod, TrackerServer.ListApplications)},
		{MethodName: "GetApplication", Handler: unary(GetApplicationMethod, TrackerServer.GetApplication)},
		{MethodName: "MoveApplication", Handler: unary(MoveApplicationMethod, TrackerServer.MoveApplication)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobtracker/tracker/v1/tracker.proto",
}

// Server implements TrackerServer.
type Server struct {
	svc *kanban.Service
}

// NewServer constructs a gRPC Server backed by the given kanban.Service.
func NewServer(svc *kanban.Service) *Server {
	return &Server{svc: svc}
}

// Register mounts srv on gs.
func Register(gs *grpc.Server, srv TrackerServer) {
	gs.RegisterService(&ServiceDesc, srv)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListApplications returns the caller's cards, optionally one column only.
//
//	request:  {"status"?: string}
//	response: {"applications": [application...]}
func (s *Server) ListApplications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	statusFilter, _ := stringField(req, "status")
	apps, err := s.svc.ListApplications(ctx, userID, statusFilter)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return toStruct(map[string]any{"applications": apps})
}

// GetApplication returns one card.
//
//	request: {"applicationId": string}
func (s *Server) GetApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	appID, ok := stringField(req, "applicationId")
	if !ok || appID == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId is required")
	}

	app, err := s.svc.GetApplication(ctx, userID, appID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(app)
}

// MoveApplication drops a card into a column at a position.
//
//	request: {"applicationId": string, "status": string, "orderIndex": number,
//	          "interviewStage"?: string|null, "rejectionStage"?: string|null}
func (s *Server) MoveApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	appID, ok := stringField(req, "applicationId")
	if !ok || appID == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId is required")
	}
	rawStatus, _ := stringField(req, "status")
	st, err := kanban.ParseStatus(rawStatus)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	idx, err := orderIndexField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	move := kanban.MoveRequest{Status: st, OrderIndex: &idx}
	if v, ok := stringField(req, "interviewStage"); ok {
		move.InterviewStage = &v
	}
	if v, ok := stringField(req, "rejectionStage"); ok {
		move.RejectionStage = &v
	}

	app, err := s.svc.MoveCard(ctx, userID, appID, move)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(app)
}

// ─── Interceptors ─────────────────────────────────────────────────────────────

// LoggingInterceptor logs every unary call with its status code.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rpcMethod func(TrackerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary adapts an RPC method to grpc.MethodHandler, honouring interceptors.
func unary(fullMethod string, call rpcMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TrackerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TrackerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// userIDFromCtx extracts the x-user-id value forwarded by the Gateway
// via gRPC metadata.
func userIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get(kanban.UserIDHeader)
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return vals[0], nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, kanban.ErrNotFound) {
		return status.Error(codes.NotFound, kanban.ErrNotFound.Error())
	}
	var ve *kanban.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	slog.Error("[tracker] rpc failed", "err", err)
	return status.Error(codes.Internal, "internal server error")
}

// toStruct converts v to a Struct through its JSON form, so RPC responses
// match the HTTP ones field for field.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// stringField returns a string field; a missing or null field reports false.
func stringField(s *structpb.Struct, name string) (string, bool) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", false
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return sv.StringValue, true
}

func orderIndexField(s *structpb.Struct) (int, error) {
	v, ok := s.GetFields()["orderIndex"]
	if !ok {
		return 0, fmt.Errorf("orderIndex is required")
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("orderIndex must be a number")
	}
	f := nv.NumberValue
	if f < 0 || f > kanban.MaxOrderIndex || f != math.Trunc(f) {
		return 0, fmt.Errorf("orderIndex must be an integer between 0 and %d", kanban.MaxOrderIndex)
	}
	return int(f), nil
}
