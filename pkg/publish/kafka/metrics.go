package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	msgs *prometheus.CounterVec
	send prometheus.Histogram
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		msgs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publish_msgs_total",
				Help: "Extent messages by result.",
			},
			[]string{"result"},
		),
		send: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "publish_send_seconds",
				Help:    "Time to get a broker ack for one message.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
		),
	}
	if r != nil {
		r.MustRegister(m.msgs, m.send)
	}
	return m
}
