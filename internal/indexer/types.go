package indexer

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/types"
)

var (
	// ErrBlockFetch covers every failed call against the block source. The height is retried.
	ErrBlockFetch = errors.New("block fetch error")

	// ErrWorker is returned when the decode worker fails or dies while handling a block.
	ErrWorker = errors.New("worker error")
)

// BlockSource is the node the indexer reads blocks from.
type BlockSource interface {
	GetChainHeight(ctx context.Context) (int64, error)
	GetBlockHashAtHeight(ctx context.Context, height int64) (chainhash.Hash, error)
	GetBlockByHash(ctx context.Context, hash chainhash.Hash) ([]byte, error)
}

// FingerprintRef ties one xfp pair fingerprint to the inscription carrying it.
type FingerprintRef struct {
	Fingerprint   string
	InscriptionID string
}

// DecodeStats counts what happened to the contents of one block.
type DecodeStats struct {
	Transactions     int
	Inscriptions     int
	Candidates       int
	ShortBodies      int
	Descriptors      int
	TxDecodeErrors   int
	WitnessErrors    int
	DescriptorErrors int
}

func (s *DecodeStats) add(other DecodeStats) {
	s.Transactions += other.Transactions
	s.Inscriptions += other.Inscriptions
	s.Candidates += other.Candidates
	s.ShortBodies += other.ShortBodies
	s.Descriptors += other.Descriptors
	s.TxDecodeErrors += other.TxDecodeErrors
	s.WitnessErrors += other.WitnessErrors
	s.DescriptorErrors += other.DescriptorErrors
}

// BlockResult is everything the sync loop needs from a processed block.
type BlockResult struct {
	Hash          chainhash.Hash
	PrevBlockHash chainhash.Hash
	Pairs         types.XfpPairs
	Stats         DecodeStats
}

// StepResult tells what ProcessNext did with the block.
type StepResult int

const (
	StepAdvanced StepResult = iota
	StepReorg
)

func (r StepResult) String() string {
	switch r {
	case StepReorg:
		return "reorg"
	default:
		return "advanced"
	}
}
