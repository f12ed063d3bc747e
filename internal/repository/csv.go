package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"sched-reader/internal/domain"
)

const DefaultOutputPath = "sched.csv"

var CSVHeader = []string{"timestamp", "cpu", "usage%", "schedrun", "schedwait", "timeslices"}

var ErrStoreNotInitialized = errors.New("csv store is not initialized")

// CSVStore writes ticks as flat comma separated records. Init truncates the
// file and writes the header; each StoreTick appends one tick with a single
// write.
type CSVStore struct {
	file *os.File
	path string
}

func NewCSVStore(path string) *CSVStore {
	if path == "" {
		path = DefaultOutputPath
	}
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) Init() error {
	var err error

	s.file, err = os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening output file: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("error encoding header: %w", err)
	}
	w.Flush()

	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	return nil
}

func (s *CSVStore) StoreTick(ctx context.Context, tick domain.Tick) error {
	if s.file == nil {
		return ErrStoreNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := tick.Reportable()
	if len(rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, m := range rows {
		if err := w.Write(FormatRecord(tick.Seconds, m)); err != nil {
			return fmt.Errorf("error encoding record for %s: %w", m.CPU, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error encoding tick %d: %w", tick.Seq, err)
	}

	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("error appending tick %d: %w", tick.Seq, err)
	}
	return nil
}

// FormatRecord renders one measurement in CSVHeader column order. Scheduler
// deltas that have no baseline yet are left empty.
func FormatRecord(seconds int64, m domain.Measurement) []string {
	record := make([]string, 0, len(CSVHeader))
	record = append(record, strconv.FormatInt(seconds, 10), string(m.CPU), FormatUsage(m.Usage))

	for _, metric := range domain.SchedMetrics {
		delta, ok := m.SchedDelta(metric)
		if !ok {
			record = append(record, "")
			continue
		}
		record = append(record, strconv.FormatInt(delta, 10))
	}
	return record
}

func FormatUsage(usage *float64) string {
	if usage == nil {
		return ""
	}
	return strconv.FormatFloat(*usage, 'f', -1, 64)
}

func (s *CSVStore) Close() error {
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
