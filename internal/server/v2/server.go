package v2

import (
	"context"
	"net"

	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func NewGRPCServer(state *types.IndexState) *grpc.Server {
	grpcServer := grpc.NewServer()
	RegisterIndexServer(grpcServer, NewIndexService(state))

	// Enable reflection for debugging (optional)
	reflection.Register(grpcServer)
	return grpcServer
}

// RunGRPCServer serves on config.GRPCHost until ctx is done.
func RunGRPCServer(ctx context.Context, state *types.IndexState) error {
	lis, err := net.Listen("tcp", config.GRPCHost)
	if err != nil {
		logging.L.Err(err).Msg("failed to listen for gRPC")
		return err
	}
	return Serve(ctx, lis, NewGRPCServer(state))
}

func Serve(ctx context.Context, lis net.Listener, grpcServer *grpc.Server) error {
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	logging.L.Info().Msgf("Starting gRPC server on host %s", lis.Addr())
	if err := grpcServer.Serve(lis); err != nil {
		logging.L.Err(err).Msg("failed to serve gRPC")
		return err
	}
	return nil
}
