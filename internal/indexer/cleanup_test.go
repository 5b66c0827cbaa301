package indexer

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/stretchr/testify/require"
)

func TestIntegrityCheckPasses(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 10, 14, 0, nil)

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 10)
	require.NoError(t, b.SyncToTip(context.Background()))

	require.NoError(t, b.IntegrityCheck(context.Background()))
	require.Equal(t, int64(14), b.state.Height())
	require.Equal(t, chain.hashAt(14).String(), b.state.Cursor().Hash)
}

func TestIntegrityCheckFreshStoreSkipsChain(t *testing.T) {
	chain := newFakeChain() // no blocks at all
	b := newTestBuilder(t, chain, newFakeStore(), 870_525)
	require.NoError(t, b.IntegrityCheck(context.Background()))
}

func TestIntegrityCheckRollsBackStaleCursor(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 10, 20, 0, nil)

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 10)
	require.NoError(t, b.SyncToTip(context.Background()))

	// reorg while offline
	chain.extend(t, 18, 21, 500, nil)

	require.NoError(t, b.IntegrityCheck(context.Background()))
	require.Equal(t, types.Cursor{Height: 15}, b.state.Cursor())
	stored, _, err := store.GetCursor()
	require.NoError(t, err)
	require.Equal(t, types.Cursor{Height: 15}, stored)

	require.NoError(t, b.SyncToTip(context.Background()))
	require.Equal(t, chain.hashAt(21).String(), b.state.Cursor().Hash)
}

func TestIntegrityCheckDetectsDivergence(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 10, 11, 0, nil)

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 10)

	store.pairs["deadbeef"] = []string{"xi0"}
	err := b.IntegrityCheck(context.Background())
	require.True(t, errors.Is(err, ErrIntegrity))

	delete(store.pairs, "deadbeef")
	store.cursor = types.Cursor{Height: 11}
	err = b.IntegrityCheck(context.Background())
	require.True(t, errors.Is(err, ErrIntegrity))
}
