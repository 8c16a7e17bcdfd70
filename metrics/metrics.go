// Package metrics exposes the counters and gauges the domain stack
// entry for client_golang calls for: block-cache hit/miss, free-block
// and free-inode counts, and open-vnode count.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wfs"

var (
	PframeHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mobj",
		Name:      "pframe_hits_total",
		Help:      "Page-frame cache hits across all memory objects.",
	})
	PframeMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mobj",
		Name:      "pframe_misses_total",
		Help:      "Page-frame cache misses across all memory objects.",
	})

	FreeBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "s5fs",
		Name:      "free_blocks",
		Help:      "Blocks currently on the superblock's free list.",
	})
	FreeInodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "s5fs",
		Name:      "free_inodes",
		Help:      "Inodes currently on the superblock's free-inode list.",
	})

	OpenVnodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "vfs",
		Name:      "open_vnodes",
		Help:      "Vnodes currently resident in the vnode cache.",
	})
)

/// SampleMobj adds a Mobj's hit/miss counts into the package-level
/// totals. Since prometheus.Counter only moves forward,
/// callers pass the delta since the last sample, not the lifetime total.
func SampleMobj(hitsDelta, missesDelta int64) {
	if hitsDelta > 0 {
		PframeHits.Add(float64(hitsDelta))
	}
	if missesDelta > 0 {
		PframeMisses.Add(float64(missesDelta))
	}
}

/// Handler returns the HTTP handler wfsctl serve registers for
/// --metrics-addr.
func Handler() http.Handler {
	return promhttp.Handler()
}

/// SetFreeBlocks/SetFreeInodes/SetOpenVnodes publish the latest gauge
/// reading. Callers (s5fs.Fs_t, vfs.Cache) own the underlying counters;
/// this package only renders them.
func SetFreeBlocks(n int64) { FreeBlocks.Set(float64(n)) }
func SetFreeInodes(n int64) { FreeInodes.Set(float64(n)) }
func SetOpenVnodes(n int)   { OpenVnodes.Set(float64(n)) }
