package indexer

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/blockparse"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/descriptor"
	"github.com/setavenger/xfp-indexer/internal/inscription"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/metrics"
	"github.com/setavenger/xfp-indexer/internal/types"
)

type ProcessOptions struct {
	// MinBodyLength is the shortest text body, in runes, passed to the descriptor decoder.
	MinBodyLength int

	// MaxParallelDecoders bounds how many transactions are decoded at once.
	MaxParallelDecoders int
}

func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		MinBodyLength:       config.MinInscriptionLength,
		MaxParallelDecoders: config.MaxParallelDecoders,
	}
}

// decodeDescriptor is swapped in tests to observe decoder calls
var decodeDescriptor = descriptor.Decode

type txResult struct {
	refs  []FingerprintRef
	stats DecodeStats
}

// ProcessBlock decodes every transaction of a raw block and collects the xfp pair fingerprints
// of all encrypted descriptor inscriptions in it. Per transaction, input and inscription
// failures are counted in the stats and skipped. Only a block that cannot be split into
// transactions fails as a whole.
func ProcessBlock(ctx context.Context, raw []byte, opts ProcessOptions) (*BlockResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	block, err := blockparse.ParseBlock(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse block")
	}

	parallel := opts.MaxParallelDecoders
	if parallel < 1 {
		parallel = 1
	}

	// results are written by index so the merge below follows block order
	results := make([]txResult, len(block.Transactions))
	semaphore := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for i := range block.Transactions {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case semaphore <- struct{}{}: // Acquire semaphore
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release semaphore

			results[i] = processTx(&block.Transactions[i], opts)
		}(i)
	}
	wg.Wait()

	out := &BlockResult{
		Hash:          block.Hash,
		PrevBlockHash: block.PrevBlockHash,
		Pairs:         make(types.XfpPairs),
	}
	for _, res := range results {
		out.Stats.add(res.stats)
		for _, ref := range res.refs {
			out.Pairs.Add(ref.Fingerprint, ref.InscriptionID)
		}
	}

	return out, nil
}

func processTx(tx *blockparse.Transaction, opts ProcessOptions) txResult {
	res := txResult{stats: DecodeStats{Transactions: 1}}

	if err := tx.Decode(); err != nil {
		res.stats.TxDecodeErrors++
		logging.L.Debug().Err(err).Str("txid", tx.Txid.String()).Msg("skipping transaction")
		return res
	}

	txid := tx.Txid.String()
	for vin, in := range tx.Inputs {
		envelopes, err := inscription.ParseWitness(in.Witness)
		if err != nil {
			res.stats.WitnessErrors++
			logging.L.Trace().Err(err).Str("txid", txid).Int("vin", vin).Msg("skipping witness")
			continue
		}

		for _, envelope := range envelopes {
			res.stats.Inscriptions++
			if !envelope.IsText() {
				continue
			}

			text, length := envelope.Text()
			if length < opts.MinBodyLength {
				res.stats.ShortBodies++
				continue
			}
			res.stats.Candidates++

			id := inscription.InscriptionID(txid, envelope.Index)
			rec, err := decodeDescriptor(text)
			if err != nil {
				res.stats.DescriptorErrors++
				logging.L.Trace().Err(err).Str("inscription_id", id).Msg("not an encrypted descriptor")
				continue
			}

			res.stats.Descriptors++
			logging.L.Info().
				Str("inscription_id", id).
				Int("total_xfps", rec.TotalXfps).
				Strs("xfp_pair_fingerprints", rec.XfpPairFingerprints).
				Msg("found encrypted descriptor")
			res.refs = append(res.refs, ReduceFingerprints(rec, id)...)
		}
	}

	return res
}

// recordStats moves the per block counters into prometheus.
func recordStats(stats DecodeStats) {
	metrics.DecodeErrors.WithLabelValues(metrics.KindTransaction).Add(float64(stats.TxDecodeErrors))
	metrics.DecodeErrors.WithLabelValues(metrics.KindWitness).Add(float64(stats.WitnessErrors))
	metrics.DecodeErrors.WithLabelValues(metrics.KindDescriptor).Add(float64(stats.DescriptorErrors))
}
