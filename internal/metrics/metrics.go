// Package metrics exposes Prometheus counters for the compress and clone
// pipelines: package-level promauto-registered collectors plus a thin
// Collector wrapper with named recording methods.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunksHashed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_chunks_hashed_total",
			Help: "Total number of chunks strong-hashed during compress.",
		},
	)

	bytesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_bytes_deduplicated_total",
			Help: "Total uncompressed bytes skipped because their chunk was already seen.",
		},
	)

	bytesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_bytes_fetched_total",
			Help: "Total compressed bytes fetched from the archive over a RangeReader.",
		},
	)

	rangesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_ranges_issued_total",
			Help: "Total coalesced range requests issued during a clone.",
		},
	)

	seedHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_seed_hits_total",
			Help: "Total descriptors covered by a seed (file, streamed, or self-seed).",
		},
	)

	seedMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bita_seed_misses_total",
			Help: "Total descriptors that had to be fetched remotely after all seeds were exhausted.",
		},
	)
)

// Collector groups the domain counters behind named recording methods.
type Collector struct{}

// NewCollector builds a Collector over the package-level metrics.
func NewCollector() *Collector { return &Collector{} }

// RecordChunkHashed records one chunk passing through the strong hasher.
func (c *Collector) RecordChunkHashed() { chunksHashed.Inc() }

// RecordDeduplicated records uncompressedSize bytes skipped as a repeat.
func (c *Collector) RecordDeduplicated(uncompressedSize int) {
	bytesDeduplicated.Add(float64(uncompressedSize))
}

// RecordRangeFetch records one coalesced range request and the compressed
// bytes it returned.
func (c *Collector) RecordRangeFetch(compressedBytes int) {
	rangesIssued.Inc()
	bytesFetched.Add(float64(compressedBytes))
}

// RecordSeedHit records one descriptor resolved from a seed.
func (c *Collector) RecordSeedHit() { seedHits.Inc() }

// RecordSeedMiss records one descriptor that needed a remote fetch.
func (c *Collector) RecordSeedMiss() { seedMisses.Inc() }
