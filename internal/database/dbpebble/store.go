package dbpebble

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
)

type Store struct {
	DB *pebble.DB
}

var _ database.DB = (*Store)(nil)

func NewStore(db *pebble.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) LoadState(startHeight int64) (*types.IndexState, error) {
	return database.LoadWith(s, startHeight)
}

// ApplyBlock writes all touched lists and the cursor in one synced batch.
func (s *Store) ApplyBlock(update *database.BlockUpdate) error {
	batch := s.DB.NewBatch()
	defer batch.Close()

	for fp, ids := range update.Entries {
		key, err := KeyFingerprint(fp)
		if err != nil {
			return err
		}
		value, err := database.SerialiseIDs(ids)
		if err != nil {
			return err
		}
		if err = batch.Set(key, value, nil); err != nil {
			return err
		}
	}

	value, err := update.Cursor.SerialiseData()
	if err != nil {
		return err
	}
	if err = batch.Set(KeyCursor(), value, nil); err != nil {
		return err
	}

	if err = batch.Commit(pebble.Sync); err != nil {
		logging.L.Err(err).Int64("height", update.Cursor.Height).Msg("failed to write block batch")
		return errors.Wrap(err, "commit block batch")
	}
	return nil
}

func (s *Store) SetCursor(cursor types.Cursor) error {
	value, err := cursor.SerialiseData()
	if err != nil {
		return err
	}
	return s.DB.Set(KeyCursor(), value, pebble.Sync)
}

func (s *Store) GetCursor() (types.Cursor, bool, error) {
	var cursor types.Cursor
	val, closer, err := s.DB.Get(KeyCursor())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return cursor, false, nil
		}
		return cursor, false, err
	}
	defer closer.Close()

	if err = cursor.DeSerialiseData(val); err != nil {
		return cursor, false, err
	}
	return cursor, true, nil
}

func (s *Store) LookupFingerprint(fp string) ([]string, error) {
	key, err := KeyFingerprint(fp)
	if err != nil {
		return nil, err
	}

	val, closer, err := s.DB.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	defer closer.Close()

	return database.DeSerialiseIDs(val)
}

func (s *Store) ForEach(f func(fingerprint string, ids []string) error) error {
	lb, ub := BoundsFingerprint()
	it, err := s.DB.NewIter(&pebble.IterOptions{LowerBound: lb, UpperBound: ub})
	if err != nil {
		return err
	}
	defer it.Close()

	for ok := it.First(); ok; ok = it.Next() {
		ids, err := database.DeSerialiseIDs(it.Value())
		if err != nil {
			return errors.Wrapf(err, "fingerprint %x", it.Key()[1:])
		}
		if err = f(FingerprintFromKey(it.Key()), ids); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *Store) CountFingerprints() (int, error) {
	count := 0
	err := s.ForEach(func(string, []string) error {
		count++
		return nil
	})
	return count, err
}

func (s *Store) Close() error {
	return s.DB.Close()
}
