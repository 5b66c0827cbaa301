package indexer

import (
	"github.com/setavenger/xfp-indexer/internal/config"
)

// NewBlockSource returns the block source selected by block_source.
func NewBlockSource() BlockSource {
	switch config.Source {
	case config.SourceRPC:
		return NewRPCSource(config.NodeEndpoint, config.RpcUser, config.RpcPass, config.RequestTimeout)
	default:
		return NewRestSource(config.NodeEndpoint, config.RequestTimeout)
	}
}
