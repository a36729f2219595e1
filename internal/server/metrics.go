package server

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spotd_loads_total",
		Help: "Total number of spot document reads",
	})
	savesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spotd_saves_total",
		Help: "Total number of spot document replacements",
	})
	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotd_errors_total",
		Help: "Total error responses by HTTP status",
	}, []string{"status"})
	spotCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spotd_spots",
		Help: "Number of spots in the last served document",
	})
	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spotd_ws_clients",
		Help: "Connected WebSocket clients",
	})
)

func init() {
	prometheus.MustRegister(loadsTotal)
	prometheus.MustRegister(savesTotal)
	prometheus.MustRegister(errorsTotal)
	prometheus.MustRegister(spotCount)
	prometheus.MustRegister(wsClients)
}
