package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sched-reader/internal/config"
	"sched-reader/internal/domain"
	"sched-reader/internal/engine"
	"sched-reader/internal/util"
)

type Option func(*Sampler)

func WithClock(clock Clock) Option {
	return func(s *Sampler) {
		s.clock = clock
	}
}

// Sampler runs one read-compute-store cycle per interval on a single
// goroutine. It never catches up after an overrun.
type Sampler struct {
	interval time.Duration
	source   domain.CounterSource
	engine   *engine.Engine
	sink     domain.Sink
	logger   *util.SchedLogger
	clock    Clock

	launchedAt time.Time
	seq        uint64
	overruns   atomic.Uint64
}

func New(cfg config.Config, source domain.CounterSource, eng *engine.Engine, sink domain.Sink, logger *util.SchedLogger, opts ...Option) *Sampler {
	s := &Sampler{
		interval: cfg.Interval,
		source:   source,
		engine:   eng,
		sink:     sink,
		logger:   logger,
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.launchedAt = s.clock.Now()
	return s
}

func (s *Sampler) Overruns() uint64 {
	return s.overruns.Load()
}

// Run samples until ctx is cancelled, which ends the loop with a nil error.
// Source and sink failures end it with that failure.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("sampler started", zap.Duration("interval", s.interval))

	for {
		begin := s.clock.Now()

		tick, err := s.Tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		elapsed := s.clock.Now().Sub(begin)
		remaining := s.interval - elapsed
		if remaining <= 0 {
			s.overruns.Add(1)
			s.logger.Warn("sampler overrun",
				zap.Uint64("tick", tick.Seq),
				zap.Float64("elapsed_s", elapsed.Seconds()),
				zap.Float64("overrun_s", -remaining.Seconds()),
			)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if err := s.clock.Sleep(ctx, remaining); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Tick performs one cycle: read both tables, compute, hand the result to the
// sink. History reflects this tick's counters before Tick returns.
func (s *Sampler) Tick(ctx context.Context) (domain.Tick, error) {
	at := s.clock.Now()

	utilRows, err := s.source.ReadUtilizationTable(ctx)
	if err != nil {
		return domain.Tick{}, fmt.Errorf("reading utilization table: %w", err)
	}
	schedRows, err := s.source.ReadSchedulerTable(ctx)
	if err != nil {
		return domain.Tick{}, fmt.Errorf("reading scheduler table: %w", err)
	}

	s.seq++
	tick := domain.Tick{
		Seq:          s.seq,
		Seconds:      int64(at.Sub(s.launchedAt) / time.Second),
		At:           at,
		Measurements: s.engine.Compute(utilRows, schedRows),
	}

	for _, m := range tick.Measurements {
		if m.Reset {
			s.logger.Debug("counter regression, utilization re-baselined", zap.String("cpu", string(m.CPU)), zap.Uint64("tick", tick.Seq))
		}
		for metric, delta := range m.Sched {
			if delta < 0 {
				s.logger.Debug("scheduler counter went backwards", zap.String("cpu", string(m.CPU)), zap.String("metric", string(metric)), zap.Int64("delta", delta))
			}
		}
	}

	if err := s.sink.StoreTick(ctx, tick); err != nil {
		return tick, fmt.Errorf("storing tick %d: %w", tick.Seq, err)
	}
	return tick, nil
}
