package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	ReconRuns       prometheus.Counter
	ReconExceptions *prometheus.CounterVec
	DocumentSets    prometheus.Gauge
	Invoices        prometheus.Gauge
	PackingLists    prometheus.Gauge
	QueryLatencySec prometheus.Histogram
	HTTPRequests    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	reconRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "docflow_recon_runs_total"})
	reconExceptions := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "docflow_recon_exceptions_total"},
		[]string{"exception"},
	)
	documentSets := prometheus.NewGauge(prometheus.GaugeOpts{Name: "docflow_document_sets"})
	invoices := prometheus.NewGauge(prometheus.GaugeOpts{Name: "docflow_invoices"})
	packingLists := prometheus.NewGauge(prometheus.GaugeOpts{Name: "docflow_packing_lists"})
	queryLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docflow_warehouse_query_seconds",
		Buckets: prometheus.DefBuckets,
	})
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "docflow_http_requests_total"},
		[]string{"path", "status"},
	)

	r.MustRegister(reconRuns, reconExceptions, documentSets, invoices, packingLists, queryLatency, httpRequests)
	return &Registry{
		reg:             r,
		ReconRuns:       reconRuns,
		ReconExceptions: reconExceptions,
		DocumentSets:    documentSets,
		Invoices:        invoices,
		PackingLists:    packingLists,
		QueryLatencySec: queryLatency,
		HTTPRequests:    httpRequests,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveRequest counts one served HTTP request.
func (r *Registry) ObserveRequest(path string, status int) {
	r.HTTPRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
