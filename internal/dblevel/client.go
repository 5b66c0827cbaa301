package dblevel

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var syncWrite = &opt.WriteOptions{Sync: true}

// Store keeps the index in a single leveldb instance using the same key layout as the pebble backend.
type Store struct {
	DB *leveldb.DB
}

var _ database.DB = (*Store)(nil)

// OpenDBConnection opens the leveldb at path, or below the configured db path when path is empty.
func OpenDBConnection(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(config.DBPath, "leveldb")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		logging.L.Err(err).Str("path", path).Msg("error opening db connection")
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) LoadState(startHeight int64) (*types.IndexState, error) {
	return database.LoadWith(s, startHeight)
}

func (s *Store) ApplyBlock(update *database.BlockUpdate) error {
	batch := new(leveldb.Batch)
	for fp, ids := range update.Entries {
		key, value, err := extractKeyValue(fp, ids)
		if err != nil {
			return err
		}
		batch.Put(key, value)
	}

	value, err := update.Cursor.SerialiseData()
	if err != nil {
		return err
	}
	batch.Put(keyCursor(), value)

	if err = s.DB.Write(batch, syncWrite); err != nil {
		logging.L.Err(err).Int64("height", update.Cursor.Height).Msg("error inserting batch")
		return errors.Wrap(err, "write block batch")
	}
	return nil
}

func (s *Store) SetCursor(cursor types.Cursor) error {
	value, err := cursor.SerialiseData()
	if err != nil {
		return err
	}
	return s.DB.Put(keyCursor(), value, syncWrite)
}

func (s *Store) GetCursor() (types.Cursor, bool, error) {
	var cursor types.Cursor
	data, err := s.DB.Get(keyCursor(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return cursor, false, nil
	}
	if err != nil {
		return cursor, false, err
	}
	if err = cursor.DeSerialiseData(data); err != nil {
		return cursor, false, err
	}
	return cursor, true, nil
}

func (s *Store) LookupFingerprint(fp string) ([]string, error) {
	key, err := keyFingerprint(fp)
	if err != nil {
		return nil, err
	}
	data, err := s.DB.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return database.DeSerialiseIDs(data)
}

func (s *Store) ForEach(f func(fingerprint string, ids []string) error) error {
	iter := s.DB.NewIterator(fingerprintRange(), nil)
	defer iter.Release()

	for iter.Next() {
		ids, err := database.DeSerialiseIDs(iter.Value())
		if err != nil {
			logging.L.Err(err).Msg("error deserialising data")
			return err
		}
		if err = f(fingerprintFromKey(iter.Key()), ids); err != nil {
			return err
		}
	}
	return iter.Error()
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
