package pglistener

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	events       *prometheus.CounterVec
	decodeErrors prometheus.Counter
	reconnects   prometheus.Counter
	listening    prometheus.Gauge
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		events: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pglistener",
			Name:      "events_total",
			Help:      "Total number of change events decoded and published.",
		}, []string{"operation"}),
		decodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "pglistener",
			Name:      "decode_errors_total",
			Help:      "Total number of notification payloads dropped as malformed.",
		}),
		reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "pglistener",
			Name:      "reconnects_total",
			Help:      "Total number of reconnect attempts after a lost connection.",
		}),
		listening: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "pglistener",
			Name:      "listening",
			Help:      "Whether the listener currently holds a live LISTEN connection.",
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
