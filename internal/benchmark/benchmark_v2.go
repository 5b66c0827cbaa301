package benchmark

import (
	"context"
	"time"

	"github.com/setavenger/xfp-indexer/internal/logging"
	v2 "github.com/setavenger/xfp-indexer/internal/server/v2"
)

// Result summarises one benchmark run
type Result struct {
	Lookups  int
	Failures int
	Found    int
	Duration time.Duration
}

func (r Result) PerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Lookups) / r.Duration.Seconds()
}

type lookupFunc func(ctx context.Context, fingerprint string) ([]string, error)

// BenchmarkV2 looks up every fingerprint through the gRPC API
func BenchmarkV2(ctx context.Context, fingerprints []string, client *v2.IndexClient) Result {
	logging.L.Info().Msgf("Starting v2 gRPC benchmark over %d fingerprints", len(fingerprints))
	return run(ctx, "v2 gRPC", fingerprints, func(ctx context.Context, fp string) ([]string, error) {
		return client.GetInscriptionIds(ctx, fp)
	})
}

func run(ctx context.Context, name string, fingerprints []string, lookup lookupFunc) Result {
	var res Result
	startTime := time.Now()

	for _, fp := range fingerprints {
		if ctx.Err() != nil {
			break
		}
		res.Lookups++
		ids, err := lookup(ctx, fp)
		if err != nil {
			logging.L.Err(err).Str("fingerprint", fp).Msg("lookup failed")
			res.Failures++
			continue
		}
		if len(ids) > 0 {
			res.Found++
		}
	}
	res.Duration = time.Since(startTime)

	logging.L.Info().
		Int("lookups", res.Lookups).
		Int("failures", res.Failures).
		Int("found", res.Found).
		Dur("total_duration", res.Duration).
		Float64("lookups_per_second", res.PerSecond()).
		Msgf("%s benchmark completed", name)
	return res
}
