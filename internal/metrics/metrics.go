// Package metrics holds the Prometheus metrics of a conversion run. The command line tool has no
// server to be scraped, so metrics are exported in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nerprep"

// Metrics of the conversion of documents into tagged tokens.
type Metrics struct {
	documentsTotal   *prometheus.CounterVec
	tokensTotal      prometheus.Counter
	tagsTotal        *prometheus.CounterVec
	documentDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total documents processed, by status",
		}, []string{"status"}), // "ok" / "error"

		tokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total subword tokens produced",
		}),

		tagsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tags_total",
			Help:      "Total IOB tags produced, by tag",
		}, []string{"tag"}),

		documentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time to convert one document",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
	reg.MustRegister(m.documentsTotal, m.tokensTotal, m.tagsTotal, m.documentDuration)
	return m
}

// ObserveDocument records a successfully converted document and its tags.
func (m *Metrics) ObserveDocument(tags []string, elapsed time.Duration) {
	m.documentsTotal.WithLabelValues("ok").Inc()
	m.tokensTotal.Add(float64(len(tags)))
	counts := make(map[string]int)
	for _, tag := range tags {
		counts[tag]++
	}
	for tag, count := range counts {
		m.tagsTotal.WithLabelValues(tag).Add(float64(count))
	}
	m.documentDuration.Observe(elapsed.Seconds())
}

// ObserveError records a document that failed conversion.
func (m *Metrics) ObserveError() {
	m.documentsTotal.WithLabelValues("error").Inc()
}

// WriteTextfile writes all metrics gathered by g to path, in the text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "writing metrics to %q", path)
	}
	return nil
}
