// Package metrics exposes Prometheus collectors for photo ingestion and
// signed-URL issuance.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records ingestion and signing activity.
// It satisfies storage.SignObserver and service.IngestObserver.
type Collector struct {
	uploads       *prometheus.CounterVec
	metadataField *prometheus.CounterVec
	signs         *prometheus.CounterVec
	signLatency   prometheus.Histogram
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footsteps_uploads_total",
			Help: "Photo uploads by media kind and result.",
		}, []string{"kind", "result"}),
		metadataField: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footsteps_metadata_extracted_total",
			Help: "Uploads by which embedded metadata field could be extracted.",
		}, []string{"field"}),
		signs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footsteps_signed_urls_total",
			Help: "Signed view URLs issued, by result.",
		}, []string{"result"}),
		signLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "footsteps_sign_latency_seconds",
			Help:    "Time spent issuing one signed view URL.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.uploads, c.metadataField, c.signs, c.signLatency)
	return c
}

// ObserveSign records one signing call.
func (c *Collector) ObserveSign(elapsed time.Duration, err error) {
	c.signLatency.Observe(elapsed.Seconds())
	c.signs.WithLabelValues(result(err)).Inc()
}

// ObserveUpload records one upload attempt. kind is "image" or "video".
func (c *Collector) ObserveUpload(kind string, err error) {
	c.uploads.WithLabelValues(kind, result(err)).Inc()
}

// ObserveMetadata records which fields the normalizer produced.
func (c *Collector) ObserveMetadata(hasCapturedAt, hasLocation bool) {
	switch {
	case hasCapturedAt && hasLocation:
		c.metadataField.WithLabelValues("captured_at").Inc()
		c.metadataField.WithLabelValues("location").Inc()
	case hasCapturedAt:
		c.metadataField.WithLabelValues("captured_at").Inc()
	case hasLocation:
		c.metadataField.WithLabelValues("location").Inc()
	default:
		c.metadataField.WithLabelValues("none").Inc()
	}
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
