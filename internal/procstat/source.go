package procstat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"

	"sched-reader/internal/domain"
)

const DefaultProcRoot = "/proc"

const (
	statFile      = "stat"
	schedstatFile = "schedstat"

	// The cpu lines are short, but the scanner also reads the first line after
	// them, which is "intr" with one column per interrupt source.
	maxStatLineSize = 4 * 1024 * 1024
)

var (
	ErrSourceUnavailable = errors.New("counter source unavailable")
	ErrMalformedRow      = errors.New("malformed counter row")
)

// Source reads the utilization table (/proc/stat) and the scheduler
// statistics table (/proc/schedstat) under a proc mount point.
type Source struct {
	root string
	fs   *procfs.FS
}

func NewSource(root string) *Source {
	if root == "" {
		root = DefaultProcRoot
	}
	return &Source{root: root}
}

func (s *Source) Init() error {
	fs, err := procfs.NewFS(s.root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	s.fs = &fs
	return nil
}

func (s *Source) Root() string {
	return s.root
}

func (s *Source) ReadUtilizationTable(ctx context.Context) ([]domain.UtilizationRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, statFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	rows, err := ParseUtilizationTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func (s *Source) ReadSchedulerTable(ctx context.Context) ([]domain.SchedRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fs == nil {
		return nil, fmt.Errorf("%w: source for %s not initialized", ErrSourceUnavailable, s.root)
	}

	stats, err := s.fs.Schedstat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	rows := make([]domain.SchedRow, 0, len(stats.CPUs))
	for _, cpu := range stats.CPUs {
		id := string(domain.AggregateCPU) + cpu.CPUNum
		if !domain.IsPerCPU(id) {
			continue
		}
		rows = append(rows, domain.SchedRow{
			CPU: domain.CPUID(id),
			Values: map[domain.SchedMetric]uint64{
				domain.SchedRun:   cpu.RunningNanoseconds,
				domain.SchedWait:  cpu.WaitingNanoseconds,
				domain.Timeslices: cpu.RunTimeslices,
			},
		})
	}
	return rows, nil
}

// ParseUtilizationTable parses the cpu block at the top of a /proc/stat style
// table. The aggregate "cpu" line is dropped wherever it appears and parsing
// ends at the first line that is not a cpu line.
func ParseUtilizationTable(r io.Reader) ([]domain.UtilizationRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatLineSize)

	var rows []domain.UtilizationRow
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		id := fields[0]
		if !strings.HasPrefix(id, string(domain.AggregateCPU)) {
			break
		}
		if !domain.IsPerCPU(id) {
			continue
		}

		row, err := parseUtilizationRow(domain.CPUID(id), fields[1:])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return rows, nil
}

func parseUtilizationRow(id domain.CPUID, values []string) (domain.UtilizationRow, error) {
	row := domain.UtilizationRow{CPU: id}
	columns := []*uint64{
		&row.User, &row.Nice, &row.System, &row.Idle, &row.IOWait,
		&row.IRQ, &row.SoftIRQ, &row.Steal, &row.Guest, &row.GuestNice,
	}

	for i, col := range columns {
		if i >= len(values) {
			break
		}
		v, err := strconv.ParseUint(values[i], 10, 64)
		if err != nil {
			return domain.UtilizationRow{}, fmt.Errorf("%w: %s column %d: %w", ErrMalformedRow, id, i+1, err)
		}
		*col = v
	}
	return row, nil
}
