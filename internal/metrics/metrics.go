// Package metrics wires Prometheus histograms around store opens, feature
// iteration, and rendering — purely observational, never on the hot path's
// control flow, the same opt-in registration style the pack's webserver
// uses for its own request-latency histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the histograms this package instruments. A zero Recorder
// is not usable; construct one with New.
type Recorder struct {
	OpenDuration    prometheus.Histogram
	IterateDuration *prometheus.HistogramVec
	RenderDuration  prometheus.Histogram
}

// New registers a fresh set of histograms against reg, defaulting to
// prometheus.DefaultRegisterer when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		OpenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tilestore",
			Name:      "open_duration_seconds",
			Help:      "Latency of Store.Open calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		IterateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tilestore",
			Name:      "iterate_duration_seconds",
			Help:      "Latency of ForEachFeature calls, labelled by tile count visited.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tile_count_bucket"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tilestore",
			Name:      "render_duration_seconds",
			Help:      "Latency of render.Render calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(r.OpenDuration, r.IterateDuration, r.RenderDuration)
	return r
}

// TileCountBucket maps a raw tile count visited by one ForEachFeature call
// to a coarse label, keeping the IterateDuration cardinality bounded.
func TileCountBucket(tileCount int) string {
	switch {
	case tileCount <= 1:
		return "1"
	case tileCount <= 4:
		return "2-4"
	case tileCount <= 16:
		return "5-16"
	case tileCount <= 64:
		return "17-64"
	default:
		return "65+"
	}
}
