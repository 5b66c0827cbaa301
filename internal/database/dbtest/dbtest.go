// Package dbtest holds the behaviour every database.DB backend has to share.
package dbtest

import (
	"testing"

	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/stretchr/testify/require"
)

// Opener opens (or reopens) a store rooted at dir.
type Opener func(dir string) (database.DB, error)

func RunSuite(t *testing.T, open Opener) {
	t.Run("load or create", func(t *testing.T) { testLoadOrCreate(t, open) })
	t.Run("apply block", func(t *testing.T) { testApplyBlock(t, open) })
	t.Run("rollback cursor", func(t *testing.T) { testRollbackCursor(t, open) })
	t.Run("atomic on bad entry", func(t *testing.T) { testAtomicOnBadEntry(t, open) })
	t.Run("survives reopen", func(t *testing.T) { testReopen(t, open) })
}

func openStore(t *testing.T, open Opener, dir string) database.DB {
	t.Helper()
	db, err := open(dir)
	require.NoError(t, err)
	return db
}

func testLoadOrCreate(t *testing.T, open Opener) {
	db := openStore(t, open, t.TempDir())
	defer db.Close()

	_, ok, err := db.GetCursor()
	require.NoError(t, err)
	require.False(t, ok)

	state, err := db.LoadState(870_525)
	require.NoError(t, err)
	require.Equal(t, types.Cursor{Height: 870_525}, state.Cursor())
	require.Equal(t, 0, state.FingerprintCount())

	cursor, ok, err := db.GetCursor()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Cursor{Height: 870_525}, cursor)
}

func testApplyBlock(t *testing.T, open Opener) {
	db := openStore(t, open, t.TempDir())
	defer db.Close()

	first := &database.BlockUpdate{
		Entries: types.XfpPairs{
			"deadbeef": {"aai0"},
			"0badf00d": {"bbi0", "bbi1"},
		},
		Cursor: types.Cursor{Height: 101, Hash: "h101"},
	}
	require.NoError(t, db.ApplyBlock(first))

	ids, err := db.LookupFingerprint("0badf00d")
	require.NoError(t, err)
	require.Equal(t, []string{"bbi0", "bbi1"}, ids)

	// lists are replaced by the full new list
	second := &database.BlockUpdate{
		Entries: types.XfpPairs{"deadbeef": {"aai0", "cci0"}},
		Cursor:  types.Cursor{Height: 102, Hash: "h102"},
	}
	require.NoError(t, db.ApplyBlock(second))

	ids, err = db.LookupFingerprint("deadbeef")
	require.NoError(t, err)
	require.Equal(t, []string{"aai0", "cci0"}, ids)

	ids, err = db.LookupFingerprint("12345678")
	require.NoError(t, err)
	require.Empty(t, ids)

	count, err := db.CountFingerprints()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	all := make(types.XfpPairs)
	require.NoError(t, db.ForEach(func(fp string, ids []string) error {
		all[fp] = ids
		return nil
	}))
	require.Equal(t, types.XfpPairs{
		"deadbeef": {"aai0", "cci0"},
		"0badf00d": {"bbi0", "bbi1"},
	}, all)

	cursor, ok, err := db.GetCursor()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Cursor{Height: 102, Hash: "h102"}, cursor)

	// a block without fingerprints still moves the cursor
	require.NoError(t, db.ApplyBlock(&database.BlockUpdate{Cursor: types.Cursor{Height: 103, Hash: "h103"}}))
	cursor, _, err = db.GetCursor()
	require.NoError(t, err)
	require.Equal(t, int64(103), cursor.Height)
}

func testRollbackCursor(t *testing.T, open Opener) {
	db := openStore(t, open, t.TempDir())
	defer db.Close()

	require.NoError(t, db.ApplyBlock(&database.BlockUpdate{
		Entries: types.XfpPairs{"01010101": {"xi0"}},
		Cursor:  types.Cursor{Height: 200, Hash: "h200"},
	}))
	require.NoError(t, db.SetCursor(types.Cursor{Height: 195}))

	cursor, ok, err := db.GetCursor()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Cursor{Height: 195}, cursor)

	// entries of orphaned blocks stay
	ids, err := db.LookupFingerprint("01010101")
	require.NoError(t, err)
	require.Equal(t, []string{"xi0"}, ids)
}

func testAtomicOnBadEntry(t *testing.T, open Opener) {
	db := openStore(t, open, t.TempDir())
	defer db.Close()

	require.NoError(t, db.SetCursor(types.Cursor{Height: 10, Hash: "h10"}))

	err := db.ApplyBlock(&database.BlockUpdate{
		Entries: types.XfpPairs{"aaaaaaaa": {"ai0"}, "not-hex!": {"bi0"}},
		Cursor:  types.Cursor{Height: 11, Hash: "h11"},
	})
	require.Error(t, err)

	cursor, _, err := db.GetCursor()
	require.NoError(t, err)
	require.Equal(t, types.Cursor{Height: 10, Hash: "h10"}, cursor)

	count, err := db.CountFingerprints()
	require.NoError(t, err)
	require.Zero(t, count)
}

func testReopen(t *testing.T, open Opener) {
	dir := t.TempDir()

	db := openStore(t, open, dir)
	require.NoError(t, db.ApplyBlock(&database.BlockUpdate{
		Entries: types.XfpPairs{"cafebabe": {"ti0", "ui2"}},
		Cursor:  types.Cursor{Height: 870_600, Hash: "tip"},
	}))
	require.NoError(t, db.Close())

	db = openStore(t, open, dir)
	defer db.Close()

	state, err := db.LoadState(870_525)
	require.NoError(t, err)
	require.Equal(t, types.Cursor{Height: 870_600, Hash: "tip"}, state.Cursor())
	require.Equal(t, []string{"ti0", "ui2"}, state.Lookup("cafebabe"))
}
