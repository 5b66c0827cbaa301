package dbsqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
)

type Store struct {
	DB *sql.DB
}

var _ database.DB = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) LoadState(startHeight int64) (*types.IndexState, error) {
	return database.LoadWith(s, startHeight)
}

// ApplyBlock replaces every touched list and moves the cursor inside one transaction.
func (s *Store) ApplyBlock(update *database.BlockUpdate) (err error) {
	ctx := context.Background()

	keys := make(map[string][]byte, len(update.Entries))
	for fp := range update.Entries {
		raw, err := database.FingerprintBytes(fp)
		if err != nil {
			return err
		}
		keys[fp] = raw[:]
	}

	batch, err := BeginBatch(ctx, s.DB)
	if err != nil {
		return errors.Wrap(err, "begin block tx")
	}
	defer func() {
		if err != nil {
			_ = batch.Rollback()
		}
	}()

	for fp, ids := range update.Entries {
		if err = batch.ReplaceList(ctx, keys[fp], ids); err != nil {
			logging.L.Err(err).Str("fingerprint", fp).Msg("failed insert")
			return err
		}
	}
	if err = batch.SetCursor(ctx, update.Cursor); err != nil {
		return err
	}
	if err = batch.Commit(); err != nil {
		logging.L.Err(err).Int64("height", update.Cursor.Height).Msg("failed to commit block tx")
		return errors.Wrap(err, "commit block tx")
	}
	return nil
}

func (s *Store) SetCursor(cursor types.Cursor) error {
	_, err := s.DB.Exec(upsertCursorSQL, cursor.Height, cursor.Hash)
	return err
}

func (s *Store) GetCursor() (types.Cursor, bool, error) {
	var cursor types.Cursor
	err := s.DB.QueryRow("SELECT height, block_hash FROM sync_cursor WHERE id = 0").
		Scan(&cursor.Height, &cursor.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Cursor{}, false, nil
	}
	if err != nil {
		return types.Cursor{}, false, err
	}
	return cursor, true, nil
}

func (s *Store) LookupFingerprint(fp string) ([]string, error) {
	raw, err := database.FingerprintBytes(fp)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(
		"SELECT inscription_id FROM xfp_pairs WHERE fingerprint = ? ORDER BY position", raw[:],
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type fingerprintList struct {
	fp  []byte
	ids []string
}

// ForEach reads the whole table before calling f, the pool only has one connection.
func (s *Store) ForEach(f func(fingerprint string, ids []string) error) error {
	rows, err := s.DB.Query("SELECT fingerprint, inscription_id FROM xfp_pairs ORDER BY fingerprint, position")
	if err != nil {
		return err
	}

	var lists []fingerprintList
	for rows.Next() {
		var (
			fp []byte
			id string
		)
		if err = rows.Scan(&fp, &id); err != nil {
			rows.Close()
			return err
		}
		if n := len(lists); n > 0 && bytes.Equal(lists[n-1].fp, fp) {
			lists[n-1].ids = append(lists[n-1].ids, id)
			continue
		}
		lists = append(lists, fingerprintList{fp: fp, ids: []string{id}})
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, l := range lists {
		if err = f(hex.EncodeToString(l.fp), l.ids); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CountFingerprints() (int, error) {
	var count int
	err := s.DB.QueryRow("SELECT COUNT(DISTINCT fingerprint) FROM xfp_pairs").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.DB.Close()
}
