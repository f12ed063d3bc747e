package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sched-reader/internal/config"
	"sched-reader/internal/domain"
	"sched-reader/internal/engine"
	"sched-reader/internal/procstat"
	"sched-reader/internal/repository"
	"sched-reader/internal/sampler"
	"sched-reader/internal/util"
)

var (
	ErrNoCaptures        = errors.New("no capture directories found")
	errCapturesExhausted = errors.New("captures exhausted")
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, relying on system environment variables")
	}

	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ingest",
		Usage: "replay captured stat/schedstat snapshots into the sampler CSV format",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "captures",
				Usage:    "directory holding one sub-directory per tick, each with stat and schedstat",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   repository.DefaultOutputPath,
			},
			&cli.IntFlag{
				Name:    "precision",
				Aliases: []string{"p"},
				Value:   engine.DefaultPrecision,
			},
			&cli.Float64Flag{
				Name:    "delay",
				Aliases: []string{"d"},
				Usage:   "seconds between captures, used for the timestamp column",
				Value:   config.DefaultDelaySeconds,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"SCHED_LOG_LEVEL"},
			},
		},
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			_ = cli.ShowAppHelp(c)
			return cli.Exit(fmt.Sprintf("Incorrect Usage: %v", err), 2)
		},
		Action: func(c *cli.Context) error {
			level, err := util.ParseLogLevel(c.String("log-level"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			cfg := config.Default()
			cfg.OutputPath = c.String("output")
			cfg.Precision = c.Int("precision")
			cfg.Interval = time.Duration(c.Float64("delay") * float64(time.Second))
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 2)
			}

			var logger util.SchedLogger
			if err := logger.Init("", level); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer logger.DeInit()

			ticks, err := replay(c.Context, c.String("captures"), cfg, &logger)
			if err != nil {
				logger.Error("replay failed", zap.Error(err))
				return cli.Exit(err.Error(), 1)
			}
			logger.Info("Data ingestion complete.", zap.Int("ticks", ticks), zap.String("output", cfg.OutputPath))
			return nil
		},
	}
}

// replay feeds every capture directory under root, in lexical order, through
// one sampler and engine and writes the result to cfg.OutputPath.
func replay(ctx context.Context, root string, cfg config.Config, logger *util.SchedLogger) (int, error) {
	dirs, err := captureDirs(root)
	if err != nil {
		return 0, err
	}

	store := repository.NewCSVStore(cfg.OutputPath)
	if err := store.Init(); err != nil {
		return 0, err
	}
	defer store.Close()

	source := &captureSource{dirs: dirs}
	s := sampler.New(cfg, source, engine.New(cfg.Precision), store, logger, sampler.WithClock(&replayClock{}))

	err = s.Run(ctx)
	if err != nil && !errors.Is(err, errCapturesExhausted) {
		return source.next, err
	}
	return source.next, nil
}

func captureDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("error reading captures: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCaptures, root)
	}
	return dirs, nil
}

// captureSource serves one capture directory per tick. The scheduler table
// always comes from the directory the utilization table was just read from.
type captureSource struct {
	dirs    []string
	next    int
	current *procstat.Source
}

func (c *captureSource) ReadUtilizationTable(ctx context.Context) ([]domain.UtilizationRow, error) {
	if c.next >= len(c.dirs) {
		return nil, errCapturesExhausted
	}

	src := procstat.NewSource(c.dirs[c.next])
	if err := src.Init(); err != nil {
		return nil, err
	}
	c.next++
	c.current = src
	return src.ReadUtilizationTable(ctx)
}

func (c *captureSource) ReadSchedulerTable(ctx context.Context) ([]domain.SchedRow, error) {
	if c.current == nil {
		return nil, errCapturesExhausted
	}
	return c.current.ReadSchedulerTable(ctx)
}

// replayClock only moves when the sampler sleeps, so tick n lands at n*delay.
type replayClock struct {
	now time.Time
}

func (r *replayClock) Now() time.Time {
	return r.now
}

func (r *replayClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.now = r.now.Add(d)
	return nil
}
