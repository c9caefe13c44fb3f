package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/botscope/internal/config"
	"github.com/hamed0406/botscope/internal/events"
	"github.com/hamed0406/botscope/internal/httpapi"
	"github.com/hamed0406/botscope/internal/logging"
	"github.com/hamed0406/botscope/internal/metrics"
	"github.com/hamed0406/botscope/internal/monitor"
	"github.com/hamed0406/botscope/internal/probe"
	"github.com/hamed0406/botscope/internal/registry"
	"github.com/hamed0406/botscope/internal/scheduler"
)

const (
	shutdownTimeout = 10 * time.Second
	recentEvents    = 200
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("botscope_failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.NewCollector()
	recorder := events.NewRecorder(recentEvents)
	sink := events.Multi{events.LogSink{Logger: logger}, recorder, m}

	reg := registry.New(logger, store)
	mon := monitor.New(logger, reg, monitor.Options{
		Heartbeat:         cfg.HeartbeatInterval,
		DowntimeThreshold: cfg.DowntimeThreshold,
		Sink:              sink,
		Metrics:           m,
	})
	defer mon.Stop()

	n := mon.Load(ctx)
	logger.Info("monitoring_started",
		zap.Int("targets", n),
		zap.String("store", cfg.StoreBackend),
		zap.Durations("cadences", cfg.Cadences()),
		zap.Duration("downtime_threshold", cfg.DowntimeThreshold),
	)
	for _, t := range reg.List() {
		logger.Info("monitored_target", zap.String("name", t.Name), zap.String("url", t.URL))
	}

	sched := scheduler.New(logger, mon, buildChecker(cfg), cfg.Cadences(), cfg.CheckTimeout, m)

	api := httpapi.NewServer(logger, mon, recorder, m.Handler())
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			RegisterRPM:    cfg.RegisterRPM,
			RegisterBurst:  cfg.RegisterBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown_started")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Info("shutdown_complete")
	return err
}

func buildChecker(cfg config.Config) probe.Checker {
	var chk probe.Checker = probe.NewHTTPChecker(cfg.CheckTimeout)
	if cfg.RetryAttempts > 1 {
		chk = &probe.RetryChecker{Inner: chk, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}
	if cfg.DNSDiagnostics {
		chk = probe.NewDiagnosingChecker(chk)
	}
	return chk
}
