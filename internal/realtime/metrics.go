package realtime

import "github.com/prometheus/client_golang/prometheus"

const (
	dropQueueFull  = "queue_full"
	dropSlowClient = "slow_client"
)

type hubMetrics struct {
	clients   prometheus.Gauge
	rooms     prometheus.Gauge
	published *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

func newHubMetrics(promRegistry prometheus.Registerer) *hubMetrics {
	m := &hubMetrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "council",
			Subsystem: "realtime",
			Name:      "clients",
			Help:      "Connected fan-out clients.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "council",
			Subsystem: "realtime",
			Name:      "rooms",
			Help:      "Bill rooms with at least one member.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "council",
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Events accepted into the broadcast queue.",
		}, []string{"event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "council",
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Events or clients dropped during fan-out.",
		}, []string{"reason"}),
	}
	if promRegistry != nil {
		promRegistry.MustRegister(m.clients, m.rooms, m.published, m.dropped)
	}
	return m
}
