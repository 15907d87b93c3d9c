package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(bumpResultsTotal, bumpPassDuration, bumpPassesCoalesced, titleFetchTotal, threadsTracked)
}

var (
	bumpResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bump_results_total",
			Help: "Bump requests by outcome.",
		},
		[]string{"status"}, // bumped, rate_limited, remote_error, unparseable, timeout
	)

	bumpPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bump_pass_duration_seconds",
			Help:    "Wall time of a full bump pass over all threads.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	bumpPassesCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bump_passes_coalesced_total",
			Help: "Bump triggers that joined a pass already in flight.",
		},
	)

	titleFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_fetch_total",
			Help: "Thread title lookups by result.",
		},
		[]string{"result"}, // ok, failed
	)

	threadsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "threads_tracked",
			Help: "Number of threads in the store at the last listing.",
		},
	)
)

func IncBumpResult(status string) {
	bumpResultsTotal.WithLabelValues(statusLabel(status)).Inc()
}

func ObserveBumpPass(d time.Duration) {
	bumpPassDuration.Observe(d.Seconds())
}

func IncBumpPassCoalesced() {
	bumpPassesCoalesced.Inc()
}

func IncTitleFetch(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	titleFetchTotal.WithLabelValues(result).Inc()
}

func SetThreadsTracked(n int) {
	threadsTracked.Set(float64(n))
}
