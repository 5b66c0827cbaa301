package indexer

import (
	"github.com/setavenger/xfp-indexer/internal/descriptor"
)

// ReduceFingerprints projects a decoded descriptor onto (fingerprint, id) pairs in record order.
func ReduceFingerprints(rec *descriptor.EncryptedDescriptor, inscriptionID string) []FingerprintRef {
	if rec == nil {
		return nil
	}
	refs := make([]FingerprintRef, 0, len(rec.XfpPairFingerprints))
	for _, fp := range rec.XfpPairFingerprints {
		refs = append(refs, FingerprintRef{Fingerprint: fp, InscriptionID: inscriptionID})
	}
	return refs
}
