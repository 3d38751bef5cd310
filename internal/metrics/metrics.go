package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "reconciliations_total", Help: "Completed reconciliations by source and verdict"}, []string{"source", "verdict"})
	ReconFailures   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "reconciliation_failures_total", Help: "Failed reconciliations by source and error kind"}, []string{"source", "kind"})
	ReconDuration   = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "reconciliation_duration_seconds", Help: "Reconciliation latency", Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14)})
	UploadBytes     = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "upload_bytes", Help: "Size of uploaded position files", Buckets: prometheus.ExponentialBuckets(1024, 4, 10)})
	SheetLoads      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sheet_loads_total", Help: "Position file loads by format and outcome"}, []string{"format", "outcome"})
	UploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "uploads_rejected_total", Help: "Uploads refused before reconciliation"}, []string{"reason"})
	ContractBuilds  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "contract_builds_total", Help: "NSE token list builds by trigger and outcome"}, []string{"trigger", "outcome"})
	ContractTokens  = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "contract_tokens", Help: "Tokens in the last built list by kind"}, []string{"kind"})
	MarginQuotes    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "margin_quotes_total", Help: "SPAN margin lookups by outcome"}, []string{"outcome"})
)

// Init registers the collectors on a fresh registry.
func Init() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		Reconciliations, ReconFailures, ReconDuration,
		SheetLoads, UploadBytes, UploadsRejected,
		ContractBuilds, ContractTokens, MarginQuotes,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
