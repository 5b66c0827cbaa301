package benchmark

import (
	"context"
	"fmt"
	"slices"

	"github.com/setavenger/xfp-indexer/internal/logging"
	v2 "github.com/setavenger/xfp-indexer/internal/server/v2"
)

// Mismatch is a fingerprint for which the two APIs disagree
type Mismatch struct {
	Fingerprint string
	V1          []string
	V2          []string
	Err         error
}

func (m Mismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("%s: %v", m.Fingerprint, m.Err)
	}
	return fmt.Sprintf("%s: v1=%v v2=%v", m.Fingerprint, m.V1, m.V2)
}

// CompareV1V2 checks that both APIs return identical lists for every fingerprint and the same height.
func CompareV1V2(
	ctx context.Context, fingerprints []string, httpClient *ClientV1, grpcClient *v2.IndexClient,
) ([]Mismatch, error) {
	h1, err := httpClient.GetHeight(ctx)
	if err != nil {
		return nil, err
	}
	h2, err := grpcClient.GetHeight(ctx)
	if err != nil {
		return nil, err
	}
	if uint64(h1) != h2 {
		// the indexer may have advanced between the calls
		logging.L.Warn().Int64("v1", h1).Uint64("v2", h2).Msg("height differs")
	}

	var mismatches []Mismatch
	for _, fp := range fingerprints {
		ids1, err := httpClient.GetInscriptionIds(ctx, fp)
		if err != nil {
			mismatches = append(mismatches, Mismatch{Fingerprint: fp, Err: err})
			continue
		}
		ids2, err := grpcClient.GetInscriptionIds(ctx, fp)
		if err != nil {
			mismatches = append(mismatches, Mismatch{Fingerprint: fp, Err: err})
			continue
		}
		if !slices.Equal(ids1, ids2) {
			mismatches = append(mismatches, Mismatch{Fingerprint: fp, V1: ids1, V2: ids2})
		}
	}

	logging.L.Info().
		Int("fingerprints", len(fingerprints)).
		Int("mismatches", len(mismatches)).
		Msg("comparison done")
	return mismatches, nil
}
