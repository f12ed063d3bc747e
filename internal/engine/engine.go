package engine

import (
	"math"

	"sched-reader/internal/domain"
)

const DefaultPrecision = 2

// Engine turns counter snapshots into per-CPU measurements and advances the
// history it owns.
type Engine struct {
	history   *History
	precision int
	scale     float64
}

func New(precision int) *Engine {
	if precision < 0 {
		precision = 0
	}
	return &Engine{
		history:   NewHistory(),
		precision: precision,
		scale:     math.Pow10(precision),
	}
}

func (e *Engine) History() *History {
	return e.history
}

func (e *Engine) Precision() int {
	return e.precision
}

// Compute returns one measurement per utilization row, in table order.
// Scheduler deltas are attached to the CPU they belong to; scheduler rows for
// CPUs missing from the utilization table only advance history.
func (e *Engine) Compute(util []domain.UtilizationRow, sched []domain.SchedRow) []domain.Measurement {
	measurements := make([]domain.Measurement, 0, len(util))
	index := make(map[domain.CPUID]int, len(util))

	for _, row := range util {
		usage, reset := e.usage(row)
		index[row.CPU] = len(measurements)
		measurements = append(measurements, domain.Measurement{
			CPU:   row.CPU,
			Usage: usage,
			Reset: reset,
		})
	}

	for _, row := range sched {
		deltas := e.schedDeltas(row)
		i, ok := index[row.CPU]
		if !ok || len(deltas) == 0 {
			continue
		}
		measurements[i].Sched = deltas
	}

	return measurements
}

func (e *Engine) usage(row domain.UtilizationRow) (*float64, bool) {
	h := e.history.entry(row.CPU)
	idle, notIdle := row.IdleTicks(), row.BusyTicks()

	prev := h.util
	h.util = &utilBaseline{idle: idle, notIdle: notIdle}

	if prev == nil {
		h.state = Baselined
		return nil, false
	}

	deltaIdle := int64(idle - prev.idle)
	deltaTotal := int64((idle + notIdle) - (prev.idle + prev.notIdle))
	if deltaTotal <= 0 {
		h.state = ResetDetected
		return nil, true
	}

	h.state = SteadyState
	pct := e.round(float64(deltaTotal-deltaIdle) / float64(deltaTotal) * 100)
	return &pct, false
}

func (e *Engine) schedDeltas(row domain.SchedRow) map[domain.SchedMetric]int64 {
	h := e.history.entry(row.CPU)

	var deltas map[domain.SchedMetric]int64
	for _, metric := range domain.SchedMetrics {
		raw, ok := row.Values[metric]
		if !ok {
			continue
		}

		prev, seen := h.sched[metric]
		h.sched[metric] = raw
		if !seen {
			continue
		}

		if deltas == nil {
			deltas = make(map[domain.SchedMetric]int64, len(domain.SchedMetrics))
		}
		// Negative on counter reset; passed through unclamped.
		deltas[metric] = int64(raw - prev)
	}
	return deltas
}

func (e *Engine) round(v float64) float64 {
	return math.Round(v*e.scale) / e.scale
}
