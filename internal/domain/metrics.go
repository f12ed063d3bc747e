package domain

import (
	"context"
	"time"
)

// Measurement is the result for one CPU at one tick. Usage is nil on the
// first observed tick and whenever the utilization counters regressed.
type Measurement struct {
	CPU   CPUID                 `json:"cpu"`
	Usage *float64              `json:"usage_pct,omitempty"`
	Sched map[SchedMetric]int64 `json:"sched,omitempty"`
	Reset bool                  `json:"reset,omitempty"`
}

func (m Measurement) HasUsage() bool {
	return m.Usage != nil
}

func (m Measurement) SchedDelta(metric SchedMetric) (int64, bool) {
	v, ok := m.Sched[metric]
	return v, ok
}

type Tick struct {
	Seq          uint64        `json:"seq"`
	Seconds      int64         `json:"timestamp"`
	At           time.Time     `json:"at"`
	Measurements []Measurement `json:"measurements"`
}

// Reportable returns the measurements that carry a utilization value, in
// table order. Only these are forwarded to output.
func (t Tick) Reportable() []Measurement {
	out := make([]Measurement, 0, len(t.Measurements))
	for _, m := range t.Measurements {
		if m.HasUsage() {
			out = append(out, m)
		}
	}
	return out
}

type Sink interface {
	Init() error
	StoreTick(ctx context.Context, tick Tick) error
	Close() error
}
