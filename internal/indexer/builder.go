package indexer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/metrics"
	"github.com/setavenger/xfp-indexer/internal/types"
)

// Builder drives the index forward block by block. It is the only writer of the in-memory
// state and of the store.
type Builder struct {
	state    *types.IndexState
	store    database.DB
	source   BlockSource
	executor Executor
	clock    clock.Clock

	pollInterval   time.Duration
	rollbackWindow int64
}

func NewBuilder(
	state *types.IndexState,
	store database.DB,
	source BlockSource,
	executor Executor,
	clk clock.Clock,
) *Builder {
	return &Builder{
		state:          state,
		store:          store,
		source:         source,
		executor:       executor,
		clock:          clk,
		pollInterval:   config.PollInterval,
		rollbackWindow: config.RollbackWindow,
	}
}

// ContinuousSync syncs to the tip, waits a poll interval and repeats until ctx is done.
// Failed attempts are logged and retried after the same wait.
func (b *Builder) ContinuousSync(ctx context.Context) error {
	for {
		if err := b.SyncToTip(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.SyncErrors.Inc()
			logging.L.Err(err).
				Int64("height", b.state.Height()+1).
				Dur("retry_in", b.pollInterval).
				Msg("sync failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.clock.TickAfter(b.pollInterval):
		}
	}
}

// SyncToTip processes blocks until the cursor reaches the node's current height.
func (b *Builder) SyncToTip(ctx context.Context) error {
	tip, err := b.source.GetChainHeight(ctx)
	if err != nil {
		return errors.Wrap(err, "chain height")
	}
	metrics.ChainHeight.Set(float64(tip))

	if b.state.Height() < tip {
		logging.L.Info().
			Int64("from", b.state.Height()+1).
			Int64("to", tip).
			Msg("syncing blocks")
	}

	for b.state.Height() < tip {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err = b.ProcessNext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ProcessNext handles the block right after the cursor. A block that does not extend the
// cursor's block moves the cursor back by the rollback window and clears its hash.
func (b *Builder) ProcessNext(ctx context.Context) (StepResult, error) {
	cursor := b.state.Cursor()
	height := cursor.Height + 1

	hash, err := b.source.GetBlockHashAtHeight(ctx, height)
	if err != nil {
		return StepAdvanced, errors.Wrapf(err, "block hash at height %d", height)
	}

	raw, err := b.source.GetBlockByHash(ctx, hash)
	if err != nil {
		return StepAdvanced, errors.Wrapf(err, "block %s", hash)
	}

	result, err := b.executor.Execute(ctx, Task{Height: height, Hash: hash, Raw: raw})
	if err != nil {
		return StepAdvanced, err
	}
	if result.Hash != hash {
		return StepAdvanced, errors.Wrapf(ErrBlockFetch,
			"block at height %d hashes to %s, requested %s", height, result.Hash, hash)
	}
	recordStats(result.Stats)

	if cursor.Hash != "" && result.PrevBlockHash.String() != cursor.Hash {
		logging.L.Warn().
			Int64("height", height).
			Str("prev_blockhash", result.PrevBlockHash.String()).
			Str("expected", cursor.Hash).
			Msg("reorg detected")
		return StepReorg, b.rollback(height)
	}

	delta := b.state.Delta(result.Pairs)
	added := 0
	for fp, ids := range delta {
		added += len(ids) - len(b.state.Lookup(fp))
	}

	next := types.Cursor{Height: height, Hash: hash.String()}
	if err = b.store.ApplyBlock(&database.BlockUpdate{Entries: delta, Cursor: next}); err != nil {
		return StepAdvanced, errors.Wrapf(err, "persist block %d", height)
	}
	b.state.Apply(delta, next)

	metrics.BlocksProcessed.Inc()
	metrics.FingerprintsIndexed.Add(float64(added))
	metrics.SyncHeight.Set(float64(height))

	logging.L.Debug().
		Int64("height", height).
		Str("blockhash", next.Hash).
		Int("txs", result.Stats.Transactions).
		Int("inscriptions", result.Stats.Inscriptions).
		Int("descriptors", result.Stats.Descriptors).
		Int("fingerprints_touched", len(delta)).
		Msg("block processed")

	return StepAdvanced, nil
}

// rollback moves the cursor to height minus the rollback window and clears its hash, so the
// next block is accepted without a parent check.
func (b *Builder) rollback(height int64) error {
	target := types.Cursor{Height: max(0, height-b.rollbackWindow)}
	if err := b.store.SetCursor(target); err != nil {
		return errors.Wrap(err, "persist rollback cursor")
	}
	b.state.SetCursor(target)
	metrics.Reorgs.Inc()
	metrics.SyncHeight.Set(float64(target.Height))

	logging.L.Info().Int64("rollback_to", target.Height).Msg("cursor rolled back")
	return nil
}
