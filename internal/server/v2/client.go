package v2

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type IndexClient struct {
	cc grpc.ClientConnInterface
}

func NewIndexClient(cc grpc.ClientConnInterface) *IndexClient {
	return &IndexClient{cc: cc}
}

func (c *IndexClient) GetHeight(ctx context.Context, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetHeight", new(emptypb.Empty), out, opts...)
	if err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *IndexClient) GetInscriptionIds(
	ctx context.Context, fingerprint string, opts ...grpc.CallOption,
) ([]string, error) {
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetInscriptionIds", wrapperspb.String(fingerprint), out, opts...)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		ids = append(ids, v.GetStringValue())
	}
	return ids, nil
}

func (c *IndexClient) GetInfo(ctx context.Context, opts ...grpc.CallOption) (map[string]any, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetInfo", new(emptypb.Empty), out, opts...)
	if err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
