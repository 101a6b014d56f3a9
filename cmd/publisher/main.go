package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tradepulse/config"
	"tradepulse/internal/filecache"
	"tradepulse/internal/metrics"
	"tradepulse/internal/notify"
	"tradepulse/internal/serve"
	"tradepulse/internal/snapshot"
	"tradepulse/logger"
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
		log.Fatal("publisher failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache := filecache.New(filecache.Config{
		Dir:          cfg.Storage.DataDir,
		Names:        snapshot.Names(),
		PollInterval: cfg.Cache.PollInterval,
		FSNotify:     cfg.Cache.FSNotify,
	}, metrics.NewCache(reg), log)

	if cfg.Redis.Enabled {
		pub, err := notify.New(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		cache.OnReload(func(name string, v filecache.Version) {
			pub.Notify(name, int64(v))
		})
		log.Info("change notifications enabled", zap.String("channel", cfg.Redis.Channel))
	}

	cache.Start()
	defer func() {
		if err := cache.Stop(cfg.Cache.StopTimeout); err != nil {
			log.Warn("cache watcher did not stop cleanly", zap.Error(err))
		}
	}()

	srv := serve.NewServer(cfg.Server.Addr, cache, reg, cfg.Server.PushInterval, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
