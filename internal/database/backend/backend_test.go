package backend

import (
	"testing"

	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database/dbpebble"
	"github.com/setavenger/xfp-indexer/internal/database/dbsqlite"
	"github.com/setavenger/xfp-indexer/internal/dblevel"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	prev := config.Backend
	t.Cleanup(func() { config.Backend = prev })

	for _, tc := range []struct {
		name     string
		selected func()
		expected any
	}{
		{"pebble", func() { config.Backend = config.BackendPebble }, &dbpebble.Store{}},
		{"leveldb", func() { config.Backend = config.BackendLevelDB }, &dblevel.Store{}},
		{"sqlite", func() { config.Backend = config.BackendSQLite }, &dbsqlite.Store{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.selected()

			store, err := Open(t.TempDir())
			require.NoError(t, err)
			require.IsType(t, tc.expected, store)

			state, err := store.LoadState(5)
			require.NoError(t, err)
			require.Equal(t, int64(5), state.Height())
			require.NoError(t, store.Close())
		})
	}
}
