package database

import (
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

const SizeFingerprint = 4

var ErrBadFingerprint = errors.New("fingerprint must be 8 hex characters")

// FingerprintBytes decodes the hex form used as map key into its 4 raw bytes.
func FingerprintBytes(fp string) ([SizeFingerprint]byte, error) {
	var out [SizeFingerprint]byte
	if len(fp) != 2*SizeFingerprint {
		return out, errors.Wrapf(ErrBadFingerprint, "%q", fp)
	}
	if _, err := hex.Decode(out[:], []byte(fp)); err != nil {
		return out, errors.Wrapf(ErrBadFingerprint, "%q", fp)
	}
	return out, nil
}

// IsFingerprint reports whether fp is a well formed fingerprint key.
func IsFingerprint(fp string) bool {
	_, err := FingerprintBytes(fp)
	return err == nil
}

// SerialiseIDs encodes an inscription id list as a JSON array.
func SerialiseIDs(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func DeSerialiseIDs(data []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, errors.Wrap(err, "decode id list")
	}
	return ids, nil
}
