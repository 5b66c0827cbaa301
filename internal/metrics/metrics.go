package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xfp_indexer"

// Registry holds every collector of the indexer. The HTTP server exposes it on /metrics.
var Registry = prometheus.NewRegistry()

var (
	BlocksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_processed_total",
		Help:      "Blocks merged into the index.",
	})

	Reorgs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reorgs_total",
		Help:      "Parent hash mismatches that caused a rollback.",
	})

	DecodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Discarded decode failures by kind.",
	}, []string{"kind"})

	FingerprintsIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fingerprints_indexed_total",
		Help:      "New (fingerprint, inscription id) associations.",
	})

	SyncErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_errors_total",
		Help:      "Failed sync attempts, each followed by a retry.",
	})

	SyncHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_height",
		Help:      "Height of the last processed block.",
	})

	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chain_height",
		Help:      "Best height reported by the node.",
	})
)

// decode error kinds
const (
	KindTransaction = "transaction"
	KindWitness     = "witness"
	KindDescriptor  = "descriptor"
)

func init() {
	Registry.MustRegister(
		BlocksProcessed,
		Reorgs,
		DecodeErrors,
		FingerprintsIndexed,
		SyncErrors,
		SyncHeight,
		ChainHeight,
	)
}
