package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sched-reader/internal/domain"
)

func usage(v float64) *float64 {
	return &v
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestCSVStore_Init(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "sched.csv")
	require.NoError(t, os.WriteFile(testPath, []byte("stale,data\n1,2\n"), 0644))

	store := NewCSVStore(testPath)
	err := store.Init()
	assert.NoError(t, err, "Init should not return an error")
	defer store.Close()

	assert.Equal(t, "timestamp,cpu,usage%,schedrun,schedwait,timeslices\n", readOutput(t, testPath), "Init should overwrite any prior file")
}

func TestCSVStore_StoreTick(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "sched.csv")

	store := NewCSVStore(testPath)
	require.NoError(t, store.Init())
	defer store.Close()

	ctx := context.Background()

	// case 1: first tick, nothing reportable
	err := store.StoreTick(ctx, domain.Tick{
		Seq:     1,
		Seconds: 0,
		Measurements: []domain.Measurement{
			{CPU: "cpu0"},
			{CPU: "cpu1"},
		},
	})
	assert.NoError(t, err)

	// case 2: full tick
	err = store.StoreTick(ctx, domain.Tick{
		Seq:     2,
		Seconds: 5,
		Measurements: []domain.Measurement{
			{
				CPU:   "cpu0",
				Usage: usage(28.57),
				Sched: map[domain.SchedMetric]int64{
					domain.SchedRun:   200,
					domain.SchedWait:  -40,
					domain.Timeslices: 7,
				},
			},
			{CPU: "cpu1", Reset: true},
			{CPU: "cpu2", Usage: usage(100)},
		},
	})
	assert.NoError(t, err)

	want := "timestamp,cpu,usage%,schedrun,schedwait,timeslices\n" +
		"5,cpu0,28.57,200,-40,7\n" +
		"5,cpu2,100,,,\n"
	assert.Equal(t, want, readOutput(t, testPath))
}

func TestCSVStore_Errors(t *testing.T) {
	// case 1: not initialized
	store := NewCSVStore(filepath.Join(t.TempDir(), "sched.csv"))
	err := store.StoreTick(context.Background(), domain.Tick{})
	assert.ErrorIs(t, err, ErrStoreNotInitialized)

	// case 2: output directory does not exist
	store = NewCSVStore(filepath.Join(t.TempDir(), "missing", "sched.csv"))
	assert.Error(t, store.Init())

	// case 3: cancelled context writes nothing
	testPath := filepath.Join(t.TempDir(), "sched.csv")
	store = NewCSVStore(testPath)
	require.NoError(t, store.Init())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.StoreTick(ctx, domain.Tick{Seconds: 1, Measurements: []domain.Measurement{{CPU: "cpu0", Usage: usage(1)}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "timestamp,cpu,usage%,schedrun,schedwait,timeslices\n", readOutput(t, testPath))
}

func TestCSVStore_CloseTwice(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "sched.csv"))
	require.NoError(t, store.Init())

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewCSVStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultOutputPath, NewCSVStore("").Path())
}

func TestFormatUsage(t *testing.T) {
	assert.Equal(t, "", FormatUsage(nil))
	assert.Equal(t, "28.57", FormatUsage(usage(28.57)))
	assert.Equal(t, "0", FormatUsage(usage(0)))
	assert.Equal(t, "33.3", FormatUsage(usage(33.3)))
}
