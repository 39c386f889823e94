package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	resolutionResolved   = "resolved"
	resolutionUnresolved = "unresolved"
)

// Recorder stores all the metrics related to worker template reconciliation.
type Recorder struct {
	conflicts      *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	skippedEntries *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	conflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentpool_conflicts_total",
			Help: "Worker template candidates dropped because their name is claimed or reserved, by source kind",
		}, []string{"kind"})

	resolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentpool_image_resolutions_total",
			Help: "ImageStreamTag image reference translations, by result",
		}, []string{"result"})

	skippedEntries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentpool_skipped_entries_total",
			Help: "Source entries that did not yield a worker template, by source kind",
		}, []string{"kind"})

	return &Recorder{
		conflicts:      conflicts,
		resolutions:    resolutions,
		skippedEntries: skippedEntries,
	}
}

// Register metrics with the controller-runtime registry.
func (r *Recorder) Register() {
	ctrlmetrics.Registry.MustRegister(
		r.conflicts,
		r.resolutions,
		r.skippedEntries,
	)
}

func (r *Recorder) RecordConflict(kind string) {
	r.conflicts.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordImageResolution(resolved bool) {
	if resolved {
		r.resolutions.WithLabelValues(resolutionResolved).Inc()
		return
	}
	r.resolutions.WithLabelValues(resolutionUnresolved).Inc()
}

func (r *Recorder) RecordSkippedEntry(kind string) {
	r.skippedEntries.WithLabelValues(kind).Inc()
}
