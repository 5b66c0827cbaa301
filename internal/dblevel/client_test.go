package dblevel

import (
	"testing"

	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/database/dbtest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dbtest.RunSuite(t, func(dir string) (database.DB, error) {
		return OpenDBConnection(dir)
	})
}

func TestFingerprintRangeExcludesCursor(t *testing.T) {
	key, err := keyFingerprint("ffffffff")
	require.NoError(t, err)

	r := fingerprintRange()
	require.GreaterOrEqual(t, string(key), string(r.Start))
	require.Less(t, string(key), string(r.Limit))
	require.GreaterOrEqual(t, string(keyCursor()), string(r.Limit))
}
