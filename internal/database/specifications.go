// database defines the interfaces for handling db operations
package database

import (
	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/types"
)

var ErrNoEntry = errors.New("no entry found")

type DB interface {
	// LoadState reads the whole index and the cursor into memory. An empty store starts at
	// startHeight with no block hash.
	LoadState(startHeight int64) (*types.IndexState, error)

	// ApplyBlock writes every touched fingerprint list and the cursor in one atomic write.
	ApplyBlock(*BlockUpdate) error

	// SetCursor atomically replaces the cursor, used on rollback.
	SetCursor(types.Cursor) error

	// GetCursor returns the persisted cursor and whether one exists.
	GetCursor() (types.Cursor, bool, error)

	LookupFingerprint(fingerprint string) ([]string, error)
	CountFingerprints() (int, error)

	// ForEach walks all fingerprints in key order. Returning an error from f stops the walk.
	ForEach(f func(fingerprint string, ids []string) error) error

	Close() error
}

// BlockUpdate is the write for one processed block. Entries hold the complete lists of the
// fingerprints the block touched, not only the new ids.
type BlockUpdate struct {
	Entries types.XfpPairs
	Cursor  types.Cursor
}

// LoadWith is the shared LoadState implementation on top of GetCursor and ForEach.
func LoadWith(db DB, startHeight int64) (*types.IndexState, error) {
	cursor, ok, err := db.GetCursor()
	if err != nil {
		return nil, errors.Wrap(err, "read cursor")
	}
	if !ok {
		cursor = types.Cursor{Height: startHeight}
		if err = db.SetCursor(cursor); err != nil {
			return nil, errors.Wrap(err, "create cursor")
		}
	}

	pairs := make(types.XfpPairs)
	err = db.ForEach(func(fingerprint string, ids []string) error {
		pairs[fingerprint] = ids
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read fingerprint index")
	}

	return types.NewIndexState(pairs, cursor), nil
}
