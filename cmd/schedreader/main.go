package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sched-reader/internal/config"
	"sched-reader/internal/domain"
	"sched-reader/internal/engine"
	"sched-reader/internal/procstat"
	"sched-reader/internal/repository"
	"sched-reader/internal/router"
	"sched-reader/internal/sampler"
	"sched-reader/internal/sink"
	"sched-reader/internal/util"
)

const (
	exitFatal    = 1
	exitBadUsage = 2
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, relying on system environment variables")
	}

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		os.Exit(exitFatal)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:   "schedreader",
		Usage:  "sample per-CPU utilization and scheduler counters into a CSV file",
		Flags:  config.Flags(),
		Writer: stdout,
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			_ = cli.ShowAppHelp(c)
			return cli.Exit(fmt.Sprintf("Incorrect Usage: %v", err), exitBadUsage)
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.FromContext(c)
			if err != nil {
				_ = cli.ShowAppHelp(c)
				return cli.Exit(err.Error(), exitBadUsage)
			}

			var logger util.SchedLogger
			if err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
				return cli.Exit(fmt.Sprintf("Failed to initialize logger: %v", err), exitFatal)
			}
			defer logger.DeInit()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, &logger, c.App.Writer); err != nil {
				logger.Error("sampler stopped", zap.Error(err))
				return cli.Exit(err.Error(), exitFatal)
			}
			return nil
		},
	}
}

// run wires the source, engine and sinks together and samples until ctx is
// cancelled or a source, sink or listener fails.
func run(ctx context.Context, cfg config.Config, logger *util.SchedLogger, stdout io.Writer) error {
	runID := uuid.New()
	logger.Info("Service started",
		zap.String("run_id", runID.String()),
		zap.String("output", cfg.OutputPath),
		zap.Duration("interval", cfg.Interval),
		zap.Int("precision", cfg.Precision),
		zap.Bool("live", cfg.Live),
	)

	source := procstat.NewSource(cfg.ProcRoot)
	if err := source.Init(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	prom, err := sink.NewPrometheus(reg)
	if err != nil {
		return err
	}

	latest := sink.NewLatest(runID, time.Now())
	sinks := []domain.Sink{repository.NewCSVStore(cfg.OutputPath), latest, prom}
	if cfg.Live {
		sinks = append(sinks, sink.NewConsole(stdout))
	}

	out := sink.NewFanout(sinks...)
	if err := out.Init(); err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("error closing sinks", zap.Error(err))
		}
	}()

	s := sampler.New(cfg, source, engine.New(cfg.Precision), out, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	if cfg.ListenAddr != "" {
		server := router.NewServer(cfg.ListenAddr, router.NewRouter(latest, reg, logger))
		g.Go(func() error {
			return router.Serve(gctx, server, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if ctx.Err() != nil {
		logger.Info("Program interrupted", zap.Uint64("overruns", s.Overruns()))
	}
	return nil
}
