package dbpebble

import (
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/setavenger/xfp-indexer/internal/config"
)

// OpenDB opens the pebble store below dir, or below the configured db path when dir is empty.
func OpenDB(dir string) (*pebble.DB, error) {
	if dir == "" {
		dir = filepath.Join(config.DBPath, "pebble")
	}

	opts := (&pebble.Options{}).EnsureDefaults()
	opts.Cache = pebble.NewCache(64 << 20) // the index is small, 64 MiB is plenty
	defer opts.Cache.Unref()
	opts.BytesPerSync = 1 << 20

	return pebble.Open(dir, opts)
}
