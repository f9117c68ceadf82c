// Package metrics collects Prometheus metrics for a single putiodown run.
// A CLI run is short-lived, so metrics are exported by writing a textfile
// for the node_exporter textfile collector rather than by serving HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Run holds the metrics of one run in a private registry. It satisfies
// walk.Observer and download.Observer.
type Run struct {
	registry *prometheus.Registry
	start    time.Time

	foldersListed   prometheus.Counter
	folderChildren  prometheus.Histogram
	records         prometheus.Counter
	downloads       *prometheus.CounterVec
	downloadBytes   prometheus.Counter
	runDuration     prometheus.Gauge
	lastRunFinished prometheus.Gauge
}

// New registers the run metrics in a fresh registry.
func New() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Run{
		registry: reg,
		start:    nowFunc(),

		// Listing metrics
		foldersListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "putiodown_folders_listed_total",
			Help: "Total number of folders listed",
		}),
		folderChildren: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "putiodown_folder_children",
			Help:    "Number of children per listed folder",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		records: factory.NewCounter(prometheus.CounterOpts{
			Name: "putiodown_records_total",
			Help: "Total number of file records emitted by the walk",
		}),

		// Download metrics
		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "putiodown_downloads_total",
			Help: "Total number of handled files by outcome",
		}, []string{"status"}),
		downloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "putiodown_download_bytes_total",
			Help: "Total bytes downloaded",
		}),

		// Run metrics
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "putiodown_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastRunFinished: factory.NewGauge(prometheus.GaugeOpts{
			Name: "putiodown_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// nowFunc is replaced in tests.
var nowFunc = time.Now

// FolderListed implements walk.Observer.
func (r *Run) FolderListed(_ walk.FolderID, children int) {
	r.foldersListed.Inc()
	r.folderChildren.Observe(float64(children))
}

// RecordEmitted implements walk.Observer.
func (r *Run) RecordEmitted(walk.Record) {
	r.records.Inc()
}

// DownloadFinished implements download.Observer.
func (r *Run) DownloadFinished(_ walk.Record, status string, bytes int64) {
	r.downloads.WithLabelValues(status).Inc()

	if bytes > 0 {
		r.downloadBytes.Add(float64(bytes))
	}
}

// Finish records the run duration and completion time.
func (r *Run) Finish() {
	now := nowFunc()
	r.runDuration.Set(now.Sub(r.start).Seconds())
	r.lastRunFinished.Set(float64(now.Unix()))
}

// Gatherer exposes the registry.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: writing %s: %w", path, err)
	}

	return nil
}
