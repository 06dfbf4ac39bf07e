package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the collectors of one process.
type Registry struct {
	reg *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	LoadTotal       *prometheus.CounterVec
	RecordsLoaded   prometheus.Gauge
	RowsDropped     prometheus.Counter
	CompeteTotal    *prometheus.CounterVec
	CompeteScore    prometheus.Histogram
}

// New registers the propdash collectors on a fresh registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propdash_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propdash_http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		LoadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propdash_dataset_loads_total",
				Help: "Total dataset loads by domain and outcome",
			},
			[]string{"domain", "outcome"},
		),
		RecordsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propdash_dataset_records",
				Help: "Records in the current dataset after cleaning",
			},
		),
		RowsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "propdash_rows_dropped_total",
				Help: "Rows dropped by cleaning across all loads",
			},
		),
		CompeteTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propdash_competitiveness_total",
				Help: "Competitiveness analyses by outcome",
			},
			[]string{"outcome"},
		),
		CompeteScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "propdash_competitiveness_score",
				Help:    "Overall competitiveness scores",
				Buckets: prometheus.LinearBuckets(10, 10, 9),
			},
		),
	}
	r.reg.MustRegister(
		r.RequestDuration,
		r.RequestTotal,
		r.LoadTotal,
		r.RecordsLoaded,
		r.RowsDropped,
		r.CompeteTotal,
		r.CompeteScore,
	)
	return r
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(route, status string, d time.Duration) {
	r.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
	r.RequestTotal.WithLabelValues(route, status).Inc()
}

// ObserveLoad records a load attempt; on success records and dropped describe the result.
func (r *Registry) ObserveLoad(domain string, err error, records, dropped int) {
	if err != nil {
		r.LoadTotal.WithLabelValues(domain, "error").Inc()
		return
	}
	r.LoadTotal.WithLabelValues(domain, "ok").Inc()
	r.RecordsLoaded.Set(float64(records))
	r.RowsDropped.Add(float64(dropped))
}

// ObserveCompete records one competitiveness analysis.
func (r *Registry) ObserveCompete(err error, overall float64) {
	if err != nil {
		r.CompeteTotal.WithLabelValues("error").Inc()
		return
	}
	r.CompeteTotal.WithLabelValues("ok").Inc()
	r.CompeteScore.Observe(overall)
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
