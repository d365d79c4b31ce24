package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the scan domain.
type Metrics struct {
	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	ChangesDetected    *prometheus.CounterVec
	InstrumentsScanned prometheus.Gauge
}

// New creates and registers the scan metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexwatch_scans_total",
			Help: "Completed scans by type and outcome.",
		}, []string{"type", "outcome"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexwatch_scan_duration_seconds",
			Help:    "Wall-clock duration of one scan cycle.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ChangesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexwatch_changes_detected_total",
			Help: "Classified instrument changes by change type.",
		}, []string{"change_type"}),
		InstrumentsScanned: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lexwatch_instruments_scanned",
			Help: "Instrument count seen by the most recent scan.",
		}),
	}
}

// ObserveScan records one finished scan. Nil-safe.
func (m *Metrics) ObserveScan(scanType, outcome string, elapsed time.Duration, total int) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(scanType, outcome).Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
	m.InstrumentsScanned.Set(float64(total))
}

// ObserveChange counts one classified change. Nil-safe.
func (m *Metrics) ObserveChange(changeType string) {
	if m == nil {
		return
	}
	m.ChangesDetected.WithLabelValues(changeType).Inc()
}
