package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sched-reader/internal/config"
	"sched-reader/internal/procstat"
	"sched-reader/internal/util"
)

func writeProc(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"),
		[]byte("cpu  200 0 200 1400 0 0 0 0 0 0\ncpu0 100 0 100 700 0 0 0 0 0 0\ncpu1 100 0 100 700 0 0 0 0 0 0\nintr 0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedstat"),
		[]byte("version 15\ntimestamp 1\ncpu0 0 0 0 0 0 0 10 10 1\ncpu1 0 0 0 0 0 0 20 20 2\n"), 0o644))
	return dir
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.ProcRoot = writeProc(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "sched.csv")
	cfg.Interval = 20 * time.Millisecond
	cfg.Live = true

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var stdout bytes.Buffer
	require.NoError(t, run(ctx, cfg, util.NewSyncLogger(zap.NewNop()), &stdout))

	// counters never move, so every tick after the first re-baselines
	content, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,cpu,usage%,schedrun,schedwait,timeslices\n", string(content))
	assert.Contains(t, stdout.String(), "cpu0 usage%=-")
}

func TestRun_SourceUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.ProcRoot = filepath.Join(t.TempDir(), "missing")
	cfg.OutputPath = filepath.Join(t.TempDir(), "sched.csv")

	err := run(context.Background(), cfg, util.NewSyncLogger(zap.NewNop()), &bytes.Buffer{})
	assert.ErrorIs(t, err, procstat.ErrSourceUnavailable)
}

func TestRun_OutputUnwritable(t *testing.T) {
	cfg := config.Default()
	cfg.ProcRoot = writeProc(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "missing", "sched.csv")

	err := run(context.Background(), cfg, util.NewSyncLogger(zap.NewNop()), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApp_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"precision out of range", []string{"schedreader", "--precision", "99"}},
		{"negative delay", []string{"schedreader", "--delay", "-1"}},
		{"not a number", []string{"schedreader", "--delay", "soon"}},
		{"unknown flag", []string{"schedreader", "--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&bytes.Buffer{})
			app.ErrWriter = &bytes.Buffer{}
			app.ExitErrHandler = func(*cli.Context, error) {}

			err := app.Run(tt.args)
			require.Error(t, err)

			var exitErr cli.ExitCoder
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, exitBadUsage, exitErr.ExitCode())
		})
	}
}
