// Package descriptor decodes encrypted multisig descriptor backups: a descriptor with its
// checksum stripped, directly followed by base64 of the encrypted shares, the encrypted key
// material and the xfp pair fingerprints.
package descriptor

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// MaxXfps caps the number of key fingerprints over all groups.
	MaxXfps = 20

	// bytes of encrypted data per xfp and per xpub
	xfpDataSize  = 4
	xpubDataSize = 74

	pairFingerprintSize = 4
)

type MultisigGroup struct {
	RequiredSigs    int
	Xfps            [][]byte
	Xpubs           [][]byte
	DerivationPaths []string
	NumXfps         int
	NumXpubs        int
}

type EncryptedShareGroup struct {
	RequiredSigs    int
	EncryptedShares [][]byte
}

type EncryptedDescriptor struct {
	StrippedDescriptor     string
	MultisigGroups         []MultisigGroup
	GroupedEncryptedShares []EncryptedShareGroup
	EncryptedData          []byte
	XfpPairFingerprints    []string
	TotalXfps              int
	TotalXpubs             int
	DerivationPaths        []string
}

// MaxPairs is the number of unordered pairs among n fingerprints.
func MaxPairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// ShareSize is 33 bytes for real threshold groups and 32 otherwise.
func ShareSize(requiredSigs, numXpubs int) int {
	if numXpubs > 1 && requiredSigs > 1 {
		return 33
	}
	return 32
}

// Decode parses an encrypted descriptor text. Every failure is marked ErrDescriptorDecode.
func Decode(text string) (*EncryptedDescriptor, error) {
	stripped, data, err := splitEncrypted(text)
	if err != nil {
		return nil, err
	}

	payload, err := base64.StdEncoding.Strict().DecodeString(data)
	if err != nil {
		return nil, mark(errors.Wrap(err, "invalid base64 data"))
	}

	groups, err := ParseDescriptor(stripped)
	if err != nil {
		return nil, err
	}

	rec := &EncryptedDescriptor{
		StrippedDescriptor: stripped,
		MultisigGroups:     groups,
	}

	off := 0
	for i, group := range groups {
		if group.RequiredSigs == 0 || group.NumXpubs == 0 {
			return nil, rejectf("group %d has no required signatures or keys", i)
		}
		rec.TotalXpubs += group.NumXpubs
		rec.TotalXfps += group.NumXfps
		rec.DerivationPaths = append(rec.DerivationPaths, group.DerivationPaths...)

		size := ShareSize(group.RequiredSigs, group.NumXpubs)
		region := size * group.NumXpubs
		if off+region > len(payload) {
			return nil, errors.Wrapf(ErrShortData, "shares of group %d", i)
		}

		shares := make([][]byte, group.NumXpubs)
		for j := range shares {
			shares[j] = payload[off+j*size : off+(j+1)*size]
		}
		off += region

		rec.GroupedEncryptedShares = append(rec.GroupedEncryptedShares, EncryptedShareGroup{
			RequiredSigs:    group.RequiredSigs,
			EncryptedShares: shares,
		})
	}

	encryptedBytes := xfpDataSize*rec.TotalXfps + xpubDataSize*rec.TotalXpubs
	if off+encryptedBytes > len(payload) {
		return nil, errors.Wrap(ErrShortData, "encrypted data")
	}
	rec.EncryptedData = payload[off : off+encryptedBytes]
	off += encryptedBytes

	if rec.TotalXfps > MaxXfps {
		return nil, errors.Wrapf(ErrTooManyXfps, "found %d", rec.TotalXfps)
	}

	maxPairs := MaxPairs(rec.TotalXfps)
	for off+pairFingerprintSize <= len(payload) && len(rec.XfpPairFingerprints) < maxPairs {
		rec.XfpPairFingerprints = append(rec.XfpPairFingerprints,
			hex.EncodeToString(payload[off:off+pairFingerprintSize]))
		off += pairFingerprintSize
	}

	if off < len(payload) {
		return nil, errors.Wrapf(ErrExcessData, "%d bytes left", len(payload)-off)
	}

	return rec, nil
}

// ParseDescriptor extracts the multisig groups of a stripped descriptor.
func ParseDescriptor(desc string) ([]MultisigGroup, error) {
	if strings.Contains(desc, "tr(") {
		return nil, ErrTaprootUnsupported
	}

	bodies := multisigBodies(desc)
	if len(bodies) == 0 {
		return nil, rejectf(`descriptor must contain "[sorted]multi[_a](...)"`)
	}

	groups := make([]MultisigGroup, 0, len(bodies))
	for _, body := range bodies {
		group, err := parseGroup(body)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}
