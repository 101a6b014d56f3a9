package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tradepulse/config"
	"tradepulse/internal/memorystore"
	"tradepulse/internal/metrics"
	"tradepulse/internal/pipeline"
	"tradepulse/internal/snapshot"
	"tradepulse/logger"
	"tradepulse/pkg/polymarket"
	"tradepulse/pkg/storage/postgres"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config.yaml")
	pflag.Parse()

	// viper config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("ingestor failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewIngest(reg)

	writer, err := snapshot.NewWriter(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	var sinks []snapshot.Sink
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(ctx, cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			return fmt.Errorf("failed to connect to DB: %w", err)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
		log.Info("snapshot mirror enabled", zap.String("db", cfg.Postgres.DBName))
	}

	if cfg.Ingest.MetricsAddr != "" {
		srv := serveMetrics(cfg.Ingest.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := polymarket.NewRESTClient(cfg.Source.BaseURL, cfg.Source.Timeout, cfg.Source.Limit)
	loop := pipeline.NewLoop(pipeline.Options{
		Interval:      cfg.Ingest.Interval,
		RecentCount:   cfg.Ingest.RecentCount,
		DataDir:       cfg.Storage.DataDir,
		BackupDir:     cfg.Storage.BackupDir,
		BackupOnStart: cfg.Ingest.BackupOnStart,
	}, client, memorystore.NewTradeStore(), snapshot.NewPersister(writer, m, log, sinks...), m, log)

	return loop.Run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
