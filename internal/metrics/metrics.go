package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_requests_total", Help: "Outbound market-data requests dispatched"},
		[]string{"endpoint"},
	)
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_request_retries_total", Help: "Request retries by trigger"},
		[]string{"reason"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_signals_total", Help: "Signals emitted by zone"},
		[]string{"zone"},
	)
	SymbolsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_symbols_skipped_total", Help: "Symbols skipped during a scan"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RetriesTotal, SignalsTotal, SymbolsSkippedTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
