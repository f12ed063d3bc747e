package domain

import (
	"context"
	"strings"
)

// CPUID names one CPU line of a kernel counter table, e.g. "cpu3".
type CPUID string

const AggregateCPU CPUID = "cpu"

// IsPerCPU reports whether id names a single logical CPU: "cpu" followed by
// one or more decimal digits.
func IsPerCPU(id string) bool {
	rest, ok := strings.CutPrefix(id, string(AggregateCPU))
	if !ok || rest == "" {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// UtilizationRow holds one per-CPU line of /proc/stat, in kernel column order.
type UtilizationRow struct {
	CPU       CPUID
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

func (r UtilizationRow) IdleTicks() uint64 {
	return r.Idle + r.IOWait
}

// BusyTicks excludes guest time, which the kernel already folds into user and nice.
func (r UtilizationRow) BusyTicks() uint64 {
	return r.User + r.Nice + r.System + r.IRQ + r.SoftIRQ + r.Steal
}

type SchedMetric string

const (
	SchedRun   SchedMetric = "schedrun"
	SchedWait  SchedMetric = "schedwait"
	Timeslices SchedMetric = "timeslices"
)

// SchedMetrics is the tracked scheduler metric set in output column order.
var SchedMetrics = []SchedMetric{SchedRun, SchedWait, Timeslices}

type SchedRow struct {
	CPU    CPUID
	Values map[SchedMetric]uint64
}

type CounterSource interface {
	ReadUtilizationTable(ctx context.Context) ([]UtilizationRow, error)
	ReadSchedulerTable(ctx context.Context) ([]SchedRow, error)
}
