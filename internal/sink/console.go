package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"sched-reader/internal/domain"
)

// Console echoes each tick in a human readable form for live monitoring.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Init() error {
	return nil
}

func (c *Console) StoreTick(ctx context.Context, tick domain.Tick) error {
	if len(tick.Measurements) == 0 {
		return nil
	}

	w := bufio.NewWriter(c.out)
	for _, m := range tick.Measurements {
		usage := "-"
		if m.Usage != nil {
			usage = strconv.FormatFloat(*m.Usage, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%s usage%%=%s", m.CPU, usage)

		for _, metric := range domain.SchedMetrics {
			if delta, ok := m.SchedDelta(metric); ok {
				fmt.Fprintf(w, " %s=%d", metric, delta)
			} else {
				fmt.Fprintf(w, " %s=-", metric)
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "---")
	return w.Flush()
}

func (c *Console) Close() error {
	return nil
}
