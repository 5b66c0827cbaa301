package dbsqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/setavenger/xfp-indexer/internal/config"
	_ "modernc.org/sqlite" // driver
)

const fileName = "index.db"

// OpenDB opens (and migrates) the sqlite file inside dir. An empty dir uses the configured db path.
func OpenDB(dir string) (*sql.DB, error) {
	if dir == "" {
		dir = filepath.Join(config.DBPath, "sqlite")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	dsn := "file:" + filepath.Join(dir, fileName) +
		"?_txlock=immediate" + // BEGIN IMMEDIATE-style txns
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// a single writer and reader avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schemaSQL = `
-- one row per (fingerprint, inscription id), position keeps the discovery order
CREATE TABLE IF NOT EXISTS xfp_pairs (
  fingerprint    BLOB    NOT NULL,
  position       INTEGER NOT NULL,
  inscription_id TEXT    NOT NULL,

  PRIMARY KEY (fingerprint, position)
) STRICT, WITHOUT ROWID;

-- singleton row
CREATE TABLE IF NOT EXISTS sync_cursor (
  id         INTEGER PRIMARY KEY CHECK (id = 0),
  height     INTEGER NOT NULL,
  block_hash TEXT    NOT NULL
) STRICT;
`
