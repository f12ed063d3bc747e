package engine

import "sched-reader/internal/domain"

// State tracks the utilization baseline of one CPU across ticks.
type State int

const (
	Unseen State = iota
	Baselined
	SteadyState
	ResetDetected
)

func (s State) String() string {
	switch s {
	case Baselined:
		return "baselined"
	case SteadyState:
		return "steady"
	case ResetDetected:
		return "reset"
	default:
		return "unseen"
	}
}

type utilBaseline struct {
	idle    uint64
	notIdle uint64
}

type cpuHistory struct {
	state State
	util  *utilBaseline
	sched map[domain.SchedMetric]uint64
}

// History holds the last observed counters per CPU. Entries are created on
// first observation and live as long as the History itself. It is not safe
// for concurrent use; the sampling loop is its only writer.
type History struct {
	cpus map[domain.CPUID]*cpuHistory
}

func NewHistory() *History {
	return &History{cpus: make(map[domain.CPUID]*cpuHistory)}
}

func (h *History) entry(cpu domain.CPUID) *cpuHistory {
	e, ok := h.cpus[cpu]
	if !ok {
		e = &cpuHistory{sched: make(map[domain.SchedMetric]uint64)}
		h.cpus[cpu] = e
	}
	return e
}

func (h *History) Len() int {
	return len(h.cpus)
}

func (h *History) State(cpu domain.CPUID) State {
	if e, ok := h.cpus[cpu]; ok {
		return e.state
	}
	return Unseen
}

func (h *History) Utilization(cpu domain.CPUID) (idle, notIdle uint64, ok bool) {
	e, found := h.cpus[cpu]
	if !found || e.util == nil {
		return 0, 0, false
	}
	return e.util.idle, e.util.notIdle, true
}

func (h *History) Sched(cpu domain.CPUID, metric domain.SchedMetric) (uint64, bool) {
	e, found := h.cpus[cpu]
	if !found {
		return 0, false
	}
	v, ok := e.sched[metric]
	return v, ok
}
