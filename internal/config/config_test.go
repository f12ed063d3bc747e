package config

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"sched-reader/internal/util"
)

func parseArgs(t *testing.T, args ...string) (Config, error) {
	t.Helper()

	var (
		cfg    Config
		cfgErr error
	)
	app := &cli.App{
		Name:      "schedreader",
		Flags:     Flags(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Action: func(c *cli.Context) error {
			cfg, cfgErr = FromContext(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"schedreader"}, args...)); err != nil {
		return Config{}, err
	}
	return cfg, cfgErr
}

func TestFromContext_Defaults(t *testing.T) {
	cfg, err := parseArgs(t)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, "sched.csv", cfg.OutputPath)
	assert.Equal(t, 2, cfg.Precision)
	assert.False(t, cfg.Live)
}

func TestFromContext_Flags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(c *Config)
	}{
		{
			name: "short flags",
			args: []string{"-l", "-o", "out.csv", "-p", "3", "-d", "0.5"},
			want: func(c *Config) {
				c.Live = true
				c.OutputPath = "out.csv"
				c.Precision = 3
				c.Interval = 500 * time.Millisecond
			},
		},
		{
			name: "long flags",
			args: []string{"--live", "--output=run.csv", "--precision=0", "--delay=2.25", "--proc=/host/proc", "--listen=:9100", "--log-level=debug", "--log-file=/tmp/sched.log"},
			want: func(c *Config) {
				c.Live = true
				c.OutputPath = "run.csv"
				c.Precision = 0
				c.Interval = 2250 * time.Millisecond
				c.ProcRoot = "/host/proc"
				c.ListenAddr = ":9100"
				c.LogLevel = util.LOG_LEVEL_DEBUG
				c.LogFile = "/tmp/sched.log"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Default()
			tt.want(&want)

			got, err := parseArgs(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFromContext_Env(t *testing.T) {
	t.Setenv("SCHED_OUTPUT", "env.csv")
	t.Setenv("SCHED_DELAY", "1.5")
	t.Setenv("SCHED_LIVE", "true")

	cfg, err := parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, "env.csv", cfg.OutputPath)
	assert.Equal(t, 1500*time.Millisecond, cfg.Interval)
	assert.True(t, cfg.Live)

	cfg, err = parseArgs(t, "-o", "flag.csv")
	require.NoError(t, err)
	assert.Equal(t, "flag.csv", cfg.OutputPath, "flags win over env")
}

func TestFromContext_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"zero delay", []string{"-d", "0"}, ErrInvalidDelay},
		{"negative delay", []string{"--delay=-1"}, ErrInvalidDelay},
		{"negative precision", []string{"--precision=-1"}, ErrInvalidPrecision},
		{"huge precision", []string{"-p", "40"}, ErrInvalidPrecision},
		{"empty output", []string{"--output="}, ErrInvalidOutput},
		{"unknown log level", []string{"--log-level=loud"}, util.ErrUnknownLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(t, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromContext_MalformedArgs(t *testing.T) {
	_, err := parseArgs(t, "--delay", "soon")
	assert.Error(t, err)

	_, err = parseArgs(t, "--bogus")
	assert.Error(t, err)
}
