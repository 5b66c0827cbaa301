// Package v2 is the gRPC endpoint of the indexer
package v2

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
)

const ServiceName = "xfpindex.v1.Index"

// IndexServer is the server side of xfpindex.v1.Index. The messages are well known types, so
// the service needs no generated code.
type IndexServer interface {
	GetHeight(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error)
	GetInscriptionIds(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// IndexService answers from the in-memory index
type IndexService struct {
	state *types.IndexState
}

var _ IndexServer = (*IndexService)(nil)

func NewIndexService(state *types.IndexState) *IndexService {
	return &IndexService{state: state}
}

func (s *IndexService) GetHeight(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return wrapperspb.UInt64(uint64(s.state.Height())), nil
}

func (s *IndexService) GetInscriptionIds(
	ctx context.Context, req *wrapperspb.StringValue,
) (*structpb.ListValue, error) {
	fp := strings.ToLower(req.GetValue())
	if !database.IsFingerprint(fp) {
		return nil, status.Errorf(codes.InvalidArgument, "xfpPairFingerprint must be 8 hex characters, got %q", req.GetValue())
	}

	ids := s.state.Lookup(fp)
	values := make([]*structpb.Value, len(ids))
	for i, id := range ids {
		values[i] = structpb.NewStringValue(id)
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *IndexService) GetInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cursor := s.state.Cursor()
	info, err := structpb.NewStruct(map[string]any{
		"height":               cursor.Height,
		"blockHash":            cursor.Hash,
		"fingerprints":         s.state.FingerprintCount(),
		"minInscriptionLength": config.MinInscriptionLength,
		"rollbackWindow":       config.RollbackWindow,
	})
	if err != nil {
		logging.L.Err(err).Msg("failed building info")
		return nil, status.Error(codes.Internal, "failed building info")
	}
	return info, nil
}

func RegisterIndexServer(s grpc.ServiceRegistrar, srv IndexServer) {
	s.RegisterService(&IndexServiceDesc, srv)
}

var IndexServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndexServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetHeight", Handler: getHeightHandler},
		{MethodName: "GetInscriptionIds", Handler: getInscriptionIdsHandler},
		{MethodName: "GetInfo", Handler: getInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xfpindex/v1/index.proto",
}

func getHeightHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IndexServer).GetHeight(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetHeight"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(IndexServer).GetHeight(ctx, req.(*emptypb.Empty))
	})
}

func getInscriptionIdsHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IndexServer).GetInscriptionIds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetInscriptionIds"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(IndexServer).GetInscriptionIds(ctx, req.(*wrapperspb.StringValue))
	})
}

func getInfoHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IndexServer).GetInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetInfo"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(IndexServer).GetInfo(ctx, req.(*emptypb.Empty))
	})
}
