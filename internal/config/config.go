package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/urfave/cli/v2"

	"sched-reader/internal/engine"
	"sched-reader/internal/procstat"
	"sched-reader/internal/repository"
	"sched-reader/internal/util"
)

const (
	DefaultDelaySeconds = 5.0
	MaxPrecision        = 15
)

var (
	ErrInvalidDelay     = errors.New("delay must be a positive number of seconds")
	ErrInvalidPrecision = fmt.Errorf("precision must be between 0 and %d", MaxPrecision)
	ErrInvalidOutput    = errors.New("output path must not be empty")
)

// Config is built once at startup and shared read-only by the sampler and
// its sinks.
type Config struct {
	Live       bool
	OutputPath string
	Precision  int
	Interval   time.Duration
	ProcRoot   string
	ListenAddr string
	LogLevel   int
	LogFile    string
}

func Default() Config {
	return Config{
		OutputPath: repository.DefaultOutputPath,
		Precision:  engine.DefaultPrecision,
		Interval:   time.Duration(DefaultDelaySeconds * float64(time.Second)),
		ProcRoot:   procstat.DefaultProcRoot,
		LogLevel:   util.LOG_LEVEL_INFO,
	}
}

func (c Config) Validate() error {
	if c.OutputPath == "" {
		return ErrInvalidOutput
	}
	if c.Precision < 0 || c.Precision > MaxPrecision {
		return fmt.Errorf("%w: got %d", ErrInvalidPrecision, c.Precision)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidDelay, c.Interval)
	}
	return nil
}

// Flags are the sampler command line options. Each flag can also be set
// through its SCHED_* environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "live",
			Aliases: []string{"l"},
			Usage:   "echo every tick to the console",
			EnvVars: []string{"SCHED_LIVE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "CSV file to write (truncated at startup)",
			Value:   repository.DefaultOutputPath,
			EnvVars: []string{"SCHED_OUTPUT"},
		},
		&cli.IntFlag{
			Name:    "precision",
			Aliases: []string{"p"},
			Usage:   "number of decimals kept for usage%",
			Value:   engine.DefaultPrecision,
			EnvVars: []string{"SCHED_PRECISION"},
		},
		&cli.Float64Flag{
			Name:    "delay",
			Aliases: []string{"d"},
			Usage:   "sampling interval in seconds, fractions allowed",
			Value:   DefaultDelaySeconds,
			EnvVars: []string{"SCHED_DELAY"},
		},
		&cli.StringFlag{
			Name:    "proc",
			Usage:   "proc filesystem mount point",
			Value:   procstat.DefaultProcRoot,
			EnvVars: []string{"SCHED_PROC_ROOT"},
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "serve the latest tick over HTTP on this address (disabled when empty)",
			EnvVars: []string{"SCHED_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"SCHED_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "append logs to this file instead of stderr",
			EnvVars: []string{"SCHED_LOG_FILE"},
		},
	}
}

func FromContext(c *cli.Context) (Config, error) {
	level, err := util.ParseLogLevel(c.String("log-level"))
	if err != nil {
		return Config{}, err
	}

	delay := c.Float64("delay")
	if math.IsNaN(delay) || math.IsInf(delay, 0) || delay <= 0 {
		return Config{}, fmt.Errorf("%w: got %v", ErrInvalidDelay, delay)
	}

	cfg := Config{
		Live:       c.Bool("live"),
		OutputPath: c.String("output"),
		Precision:  c.Int("precision"),
		Interval:   time.Duration(delay * float64(time.Second)),
		ProcRoot:   c.String("proc"),
		ListenAddr: c.String("listen"),
		LogLevel:   level,
		LogFile:    c.String("log-file"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
