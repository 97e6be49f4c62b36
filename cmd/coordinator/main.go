// Package main runs the tree set coordinator behind a small JSON HTTP API.
//
// Configuration (flags or environment):
//   - COORDINATOR_ADDR: API listen address (default ":8080")
//   - TREESET_METRICS_ADDR: Prometheus listen address (default ":9090")
//   - TREESET_GC_INTERVAL: scheduler tick, 0 disables (default 30s)
//   - TREESET_GC_MIN_REMOVES: removes before a scheduled cycle (default 1000)
//   - TREESET_GC_RATE / TREESET_GC_BURST: GC trigger token bucket
//   - LOG_LEVEL, LOG_FORMAT
//
// Example usage:
//
//	COORDINATOR_ADDR=:8080 ./coordinator
//	curl -X POST localhost:8080/insert -d '{"id":1,"elem":5}'
//	curl -X POST localhost:8080/contains -d '{"id":2,"elem":5}'
//	curl -X POST localhost:8080/gc
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dreamware/treeset/internal/coordinator"
	"github.com/dreamware/treeset/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("exiting process", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "coordinator",
		Usage: "concurrent tree set coordinator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "API listen address",
				Value:   ":8080",
				EnvVars: []string{"COORDINATOR_ADDR"},
			},
			&cli.StringFlag{
				Name:    "metrics-listen",
				Usage:   "Prometheus metrics listen address",
				Value:   ":9090",
				EnvVars: []string{"TREESET_METRICS_ADDR"},
			},
			&cli.DurationFlag{
				Name:    "gc-interval",
				Usage:   "how often the scheduler considers a GC cycle (0 disables it)",
				Value:   30 * time.Second,
				EnvVars: []string{"TREESET_GC_INTERVAL"},
			},
			&cli.Int64Flag{
				Name:    "gc-min-removes",
				Usage:   "removes since the last cycle before the scheduler triggers one",
				Value:   1000,
				EnvVars: []string{"TREESET_GC_MIN_REMOVES"},
			},
			&cli.Float64Flag{
				Name:    "gc-rate",
				Usage:   "max GC triggers per second (0 disables the limit)",
				Value:   1,
				EnvVars: []string{"TREESET_GC_RATE"},
			},
			&cli.IntFlag{
				Name:    "gc-burst",
				Usage:   "GC trigger burst size",
				Value:   1,
				EnvVars: []string{"TREESET_GC_BURST"},
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Usage:   "how long an API request waits for its reply",
				Value:   5 * time.Second,
				EnvVars: []string{"TREESET_REQUEST_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format (text, json)",
				Value:   "text",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Action: runCoordinator,
	}
}

func runCoordinator(cctx *cli.Context) error {
	logger, err := logging.Configure(cctx.String("log-level"), cctx.String("log-format"), os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter *rate.Limiter
	if r := cctx.Float64("gc-rate"); r > 0 {
		limiter = rate.NewLimiter(rate.Limit(r), cctx.Int("gc-burst"))
	}

	coord := coordinator.New(ctx, coordinator.Config{
		Logger:    logger,
		GCLimiter: limiter,
	})
	defer coord.Stop()

	srv := newServer(coord, logger, cctx.Duration("request-timeout"))

	apiSrv := &http.Server{
		Addr:              cctx.String("listen"),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cctx.String("metrics-listen"),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("coordinator listening", "addr", apiSrv.Addr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("metrics listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listen: %w", err)
		}
		return nil
	})

	if interval := cctx.Duration("gc-interval"); interval > 0 {
		sched := coordinator.NewGCScheduler(coord, interval, cctx.Int64("gc-min-removes"), logger)
		g.Go(func() error {
			sched.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown", "error", err)
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("coordinator stopped")
	return err
}
