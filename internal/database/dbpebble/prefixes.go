package dbpebble

import (
	"encoding/hex"

	"github.com/setavenger/xfp-indexer/internal/database"
)

const SizeFingerprint = database.SizeFingerprint

// Prefix Keys "K"
const (
	// fingerprint -> JSON list of inscription ids
	KFingerprint = 0x01

	// single key holding the sync cursor
	KCursor = 0x02
)

func KeyFingerprint(fp string) ([]byte, error) {
	raw, err := database.FingerprintBytes(fp)
	if err != nil {
		return nil, err
	}
	k := make([]byte, 1+SizeFingerprint)
	k[0] = KFingerprint
	copy(k[1:], raw[:])
	return k, nil
}

func FingerprintFromKey(k []byte) string {
	return hex.EncodeToString(k[1 : 1+SizeFingerprint])
}

func BoundsFingerprint() (lb, ub []byte) {
	return []byte{KFingerprint}, []byte{KFingerprint + 1}
}

func KeyCursor() []byte {
	return []byte{KCursor}
}
