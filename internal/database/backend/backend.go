// Package backend opens the store selected by config.Backend.
package backend

import (
	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/database/dbpebble"
	"github.com/setavenger/xfp-indexer/internal/database/dbsqlite"
	"github.com/setavenger/xfp-indexer/internal/dblevel"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

// Open opens the configured backend. An empty dir uses the backend's default location below config.DBPath.
func Open(dir string) (database.DB, error) {
	logging.L.Info().Str("backend", config.BackendToString(config.Backend)).Msg("opening database")

	switch config.Backend {
	case config.BackendPebble:
		db, err := dbpebble.OpenDB(dir)
		if err != nil {
			return nil, errors.Wrap(err, "open pebble")
		}
		return dbpebble.NewStore(db), nil
	case config.BackendLevelDB:
		store, err := dblevel.OpenDBConnection(dir)
		if err != nil {
			return nil, errors.Wrap(err, "open leveldb")
		}
		return store, nil
	case config.BackendSQLite:
		db, err := dbsqlite.OpenDB(dir)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		return dbsqlite.NewStore(db), nil
	default:
		return nil, errors.Newf("unknown backend %d", config.Backend)
	}
}
