package sink

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sched-reader/internal/domain"
)

type Snapshot struct {
	RunID     uuid.UUID    `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Ticks     uint64       `json:"ticks"`
	Tick      *domain.Tick `json:"tick,omitempty"`
}

// Latest keeps the most recent tick that produced output, for readers outside
// the sampling loop.
type Latest struct {
	mu        sync.RWMutex
	runID     uuid.UUID
	startedAt time.Time
	ticks     uint64
	last      *domain.Tick
}

func NewLatest(runID uuid.UUID, startedAt time.Time) *Latest {
	return &Latest{runID: runID, startedAt: startedAt}
}

func (l *Latest) Init() error {
	return nil
}

func (l *Latest) StoreTick(ctx context.Context, tick domain.Tick) error {
	rows := tick.Reportable()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.ticks++
	if len(rows) == 0 {
		return nil
	}

	kept := tick
	kept.Measurements = rows
	l.last = &kept
	return nil
}

func (l *Latest) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		RunID:     l.runID,
		StartedAt: l.startedAt,
		Ticks:     l.ticks,
	}
	if l.last != nil {
		tick := *l.last
		tick.Measurements = append([]domain.Measurement(nil), l.last.Measurements...)
		snap.Tick = &tick
	}
	return snap
}

func (l *Latest) Close() error {
	return nil
}
