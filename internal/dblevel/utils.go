package dblevel

import (
	"encoding/hex"

	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	prefixFingerprint byte = 0x01
	prefixCursor      byte = 0x02
)

func keyFingerprint(fp string) ([]byte, error) {
	raw, err := database.FingerprintBytes(fp)
	if err != nil {
		return nil, err
	}
	return append([]byte{prefixFingerprint}, raw[:]...), nil
}

func fingerprintFromKey(k []byte) string {
	return hex.EncodeToString(k[1 : 1+database.SizeFingerprint])
}

func fingerprintRange() *util.Range {
	return util.BytesPrefix([]byte{prefixFingerprint})
}

func keyCursor() []byte {
	return []byte{prefixCursor}
}

// extractKeyValue validates the key before anything is added to a batch
func extractKeyValue(fp string, ids []string) ([]byte, []byte, error) {
	key, err := keyFingerprint(fp)
	if err != nil {
		return nil, nil, err
	}
	value, err := database.SerialiseIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}
