package eventbus

import "github.com/prometheus/client_golang/prometheus"

var (
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogd",
			Subsystem: "eventbus",
			Name:      "publish_total",
			Help:      "Total number of events published",
		},
		[]string{"event"},
	)

	subscribersGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "blogd",
			Subsystem: "eventbus",
			Name:      "subscribers",
			Help:      "Active subscriptions per event name",
		},
		[]string{"event"},
	)

	handlerPanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogd",
			Subsystem: "eventbus",
			Name:      "handler_panics_total",
			Help:      "Handlers that panicked during delivery",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(publishTotal, subscribersGauge, handlerPanicsTotal)
}
