// Package metrics provides Prometheus metrics for the gallery pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics, labelled by cache name ("thumbnails", "full")
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cache_lookups_total",
			Help: "Cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	cacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cache_evictions_total",
			Help: "Entries evicted from a cache",
		},
		[]string{"cache"},
	)

	// Generation pipeline
	queueDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_queue_dropped_total",
			Help: "Thumbnail tasks dropped because the queue was full",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_queue_depth",
			Help: "Thumbnail tasks waiting in the queue",
		},
	)

	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_tasks_total",
			Help: "Thumbnail tasks handled by workers, by outcome",
		},
		[]string{"outcome"},
	)

	taskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_task_duration_seconds",
			Help:    "Time to decode and resample one thumbnail",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	staleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_stale_results_total",
			Help: "Results discarded because their epoch was superseded",
		},
	)

	// Rendering
	renderPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_render_pass_duration_seconds",
			Help:    "Time spent computing one viewport render pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)

	renderOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_render_ops_total",
			Help: "Draw operations produced by render passes, by kind",
		},
		[]string{"kind"},
	)

	epochGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_epoch",
			Help: "Current layout epoch",
		},
	)

	preloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_preloads_total",
			Help: "Adjacent full-image preloads, by outcome",
		},
		[]string{"outcome"},
	)
)

// CacheLookup records a cache hit or miss.
func CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// CacheEviction records an eviction.
func CacheEviction(cache string) {
	cacheEvictionsTotal.WithLabelValues(cache).Inc()
}

// QueueDropped records a task dropped on a full queue.
func QueueDropped() {
	queueDroppedTotal.Inc()
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// TaskDone records a finished worker task. Outcome is one of
// "ok", "failed", "cached" or "stale".
func TaskDone(outcome string, d time.Duration) {
	tasksTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" || outcome == "failed" {
		taskDuration.Observe(d.Seconds())
	}
}

// StaleResult records a result discarded by the drain.
func StaleResult() {
	staleResultsTotal.Inc()
}

// RenderPass records one render pass.
func RenderPass(d time.Duration, images, placeholders, broken int) {
	renderPassDuration.Observe(d.Seconds())
	renderOpsTotal.WithLabelValues("image").Add(float64(images))
	renderOpsTotal.WithLabelValues("placeholder").Add(float64(placeholders))
	renderOpsTotal.WithLabelValues("broken").Add(float64(broken))
}

// SetEpoch records the current epoch.
func SetEpoch(epoch uint64) {
	epochGauge.Set(float64(epoch))
}

// Preload records an adjacent preload outcome ("loaded", "cached", "failed").
func Preload(outcome string) {
	preloadsTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
