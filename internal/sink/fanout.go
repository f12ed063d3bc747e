package sink

import (
	"context"
	"errors"
	"fmt"

	"sched-reader/internal/domain"
)

// Fanout forwards every tick to its sinks in order. A failing sink stops the
// tick so later sinks never see output the earlier ones rejected.
type Fanout struct {
	sinks []domain.Sink
}

func NewFanout(sinks ...domain.Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Init() error {
	for i, s := range f.sinks {
		if err := s.Init(); err != nil {
			for _, started := range f.sinks[:i] {
				started.Close()
			}
			return fmt.Errorf("error initializing sink %d: %w", i, err)
		}
	}
	return nil
}

func (f *Fanout) StoreTick(ctx context.Context, tick domain.Tick) error {
	for _, s := range f.sinks {
		if err := s.StoreTick(ctx, tick); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
