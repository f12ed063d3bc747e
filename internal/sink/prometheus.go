package sink

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"sched-reader/internal/domain"
)

const metricsNamespace = "sched"

// Prometheus mirrors the latest tick into gauges on a caller supplied registry.
type Prometheus struct {
	usage  *prometheus.GaugeVec
	sched  *prometheus.GaugeVec
	resets *prometheus.CounterVec
	ticks  prometheus.Counter
}

func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		usage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cpu",
			Name:      "usage_percent",
			Help:      "Share of elapsed CPU ticks spent non-idle during the last sampling interval.",
		}, []string{"cpu"}),
		sched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cpu",
			Name:      "sched_delta",
			Help:      "Scheduler counter delta over the last sampling interval (negative after a counter reset).",
		}, []string{"cpu", "metric"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cpu",
			Name:      "counter_resets_total",
			Help:      "Ticks where the utilization counters did not advance.",
		}, []string{"cpu"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Sampling ticks processed.",
		}),
	}

	for _, c := range []prometheus.Collector{p.usage, p.sched, p.resets, p.ticks} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("error registering collector: %w", err)
		}
	}
	return p, nil
}

func (p *Prometheus) Init() error {
	return nil
}

func (p *Prometheus) StoreTick(ctx context.Context, tick domain.Tick) error {
	p.ticks.Inc()

	for _, m := range tick.Measurements {
		cpu := string(m.CPU)
		if m.Reset {
			p.resets.WithLabelValues(cpu).Inc()
		}
		if m.Usage == nil {
			continue
		}
		p.usage.WithLabelValues(cpu).Set(*m.Usage)
		for metric, delta := range m.Sched {
			p.sched.WithLabelValues(cpu, string(metric)).Set(float64(delta))
		}
	}
	return nil
}

func (p *Prometheus) Close() error {
	return nil
}
