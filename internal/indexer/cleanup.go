package indexer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

var ErrIntegrity = errors.New("store and memory disagree")

// IntegrityCheck runs once before syncing. It makes sure the loaded state matches the store
// and that the cursor block is still part of the node's chain. A cursor block that left the
// chain while the indexer was offline triggers the same rollback as a reorg seen during sync.
func (b *Builder) IntegrityCheck(ctx context.Context) error {
	stored, ok, err := b.store.GetCursor()
	if err != nil {
		return err
	}
	cursor := b.state.Cursor()
	if !ok || stored != cursor {
		return errors.Wrapf(ErrIntegrity, "cursor in store %+v, in memory %+v", stored, cursor)
	}

	count, err := b.store.CountFingerprints()
	if err != nil {
		return err
	}
	if count != b.state.FingerprintCount() {
		return errors.Wrapf(ErrIntegrity,
			"%d fingerprints in store, %d in memory", count, b.state.FingerprintCount())
	}

	logging.L.Info().
		Int64("height", cursor.Height).
		Str("blockhash", cursor.Hash).
		Int("fingerprints", count).
		Msg("index loaded")

	if cursor.Hash == "" {
		return nil
	}

	hash, err := b.source.GetBlockHashAtHeight(ctx, cursor.Height)
	if err != nil {
		return errors.Wrapf(err, "block hash at height %d", cursor.Height)
	}
	if hash.String() == cursor.Hash {
		return nil
	}

	logging.L.Warn().
		Int64("height", cursor.Height).
		Str("blockhash", hash.String()).
		Str("expected", cursor.Hash).
		Msg("cursor block is no longer on the chain")
	return b.rollback(cursor.Height + 1)
}
