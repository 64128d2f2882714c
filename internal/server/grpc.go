// Package server exposes the game manager over gRPC and WebSocket.
package server

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/game/engine"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kingdom.v1.Engine"

const errorDomain = "kingdom"

// EngineServer is the gRPC surface of the game manager. Every request and
// response is a google.protobuf.Struct.
type EngineServer interface {
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// EngineServiceDesc describes the Engine service for grpc.Server.
var EngineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateGame", Handler: unaryHandler("CreateGame", EngineServer.CreateGame)},
		{MethodName: "Execute", Handler: unaryHandler("Execute", EngineServer.Execute)},
		{MethodName: "GetState", Handler: unaryHandler("GetState", EngineServer.GetState)},
		{MethodName: "GetEvents", Handler: unaryHandler("GetEvents", EngineServer.GetEvents)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kingdom/v1/engine.proto",
}

type method func(EngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterEngineServer registers srv on s.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&EngineServiceDesc, srv)
}

type engineServer struct {
	manager *game.Manager
	logger  *zap.Logger
}

// NewEngineServer serves m over gRPC.
func NewEngineServer(m *game.Manager, logger *zap.Logger) EngineServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &engineServer{manager: m, logger: logger}
}

type createRequest struct {
	Players []string `json:"players"`
	Kingdom []string `json:"kingdom"`
	Preset  string   `json:"preset"`
	Seed    uint64   `json:"seed,string,omitempty"`
	Viewer  string   `json:"viewer"`
}

type executeRequest struct {
	GameID    string   `json:"game_id"`
	Command   string   `json:"command"`
	Player    string   `json:"player"`
	Card      string   `json:"card"`
	Selection []string `json:"selection"`
}

type gameRequest struct {
	GameID string `json:"game_id"`
	Viewer string `json:"viewer"`
	Since  uint64 `json:"since"`
}

func (s *engineServer) CreateGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	g, err := s.manager.CreateGame(ctx, game.CreateRequest{
		Players: req.Players,
		Kingdom: req.Kingdom,
		Preset:  req.Preset,
		Seed:    req.Seed,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"game_id": g.ID(),
		"state":   NewGameView(g.State(), req.Viewer),
	})
}

func (s *engineServer) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req executeRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.GameID == "" {
		return nil, status.Error(codes.InvalidArgument, "game_id is required")
	}
	res, err := s.manager.Execute(ctx, req.GameID, game.Command{
		Type:      game.CommandType(req.Command),
		Player:    req.Player,
		Card:      req.Card,
		Selection: req.Selection,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"events":  res.Events,
		"pending": res.Pending,
	})
}

func (s *engineServer) GetState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req gameRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	st, err := s.manager.State(ctx, req.GameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"state":    NewGameView(st, req.Viewer),
		"checksum": game.Checksum(st),
	})
}

func (s *engineServer) GetEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req gameRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	events, err := s.manager.Events(ctx, req.GameID, req.Since)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"events": events})
}

// toStatus maps domain errors onto gRPC codes. Command rejections carry their
// code as ErrorInfo.Reason.
func toStatus(err error) error {
	var cmdErr *engine.CommandError
	switch {
	case errors.As(err, &cmdErr):
		st := status.New(commandCode(cmdErr.Code), cmdErr.Message)
		if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: string(cmdErr.Code),
			Domain: errorDomain,
		}); derr == nil {
			st = detailed
		}
		return st.Err()
	case errors.Is(err, game.ErrGameNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidSetup), errors.Is(err, game.ErrUnknownCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func commandCode(code engine.ErrorCode) codes.Code {
	switch code {
	case engine.CodeWrongPlayer, engine.CodeNotYourTurn:
		return codes.PermissionDenied
	case engine.CodeInvalidSelection, engine.CodeUnknownCard, engine.CodeWrongCardType, engine.CodeCardNotInHand:
		return codes.InvalidArgument
	}
	return codes.FailedPrecondition
}

// CommandErrorCode extracts the command error code from a gRPC error, if
// it carries one.
func CommandErrorCode(err error) (engine.ErrorCode, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			return engine.ErrorCode(info.Reason), true
		}
	}
	return "", false
}

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				logger.Error("panic in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", buf[:n]),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every call with its duration and status code.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil && status.Code(err) == codes.Internal {
			logger.Error("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("gRPC call", fields...)
		}
		return resp, err
	}
}
