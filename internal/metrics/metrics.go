package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "lookup_failed"
	OutcomeMalformed = "malformed_response"
	OutcomeRejected  = "rejected"
)

// Metrics owns a private registry so tests and multiple servers never collide
// on the global one.
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal   *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	ReportsTotal   *prometheus.CounterVec
	ReportPages    prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vin_decoder_lookups_total",
				Help: "Total number of VIN lookups by outcome.",
			},
			[]string{"outcome"},
		),
		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vin_decoder_lookup_duration_seconds",
				Help:    "Duration of inference lookups.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
			},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vin_decoder_reports_total",
				Help: "Total number of generated reports by format.",
			},
			[]string{"format"},
		),
		ReportPages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vin_decoder_report_pages",
				Help:    "Page count of generated PDF reports.",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
	}

	m.registry.MustRegister(
		m.LookupsTotal,
		m.LookupDuration,
		m.ReportsTotal,
		m.ReportPages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	m.LookupsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeRejected {
		m.LookupDuration.Observe(d.Seconds())
	}
}

// ObserveReport records a generated document. pages is ignored for formats
// without pagination (pass 0).
func (m *Metrics) ObserveReport(format string, pages int) {
	m.ReportsTotal.WithLabelValues(format).Inc()
	if pages > 0 {
		m.ReportPages.Observe(float64(pages))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
