// Package pipeline drives the fetch, update, compute and persist cycle.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradepulse/internal/analytics"
	"tradepulse/internal/memorystore"
	"tradepulse/internal/metrics"
	"tradepulse/internal/snapshot"
	"tradepulse/internal/trade"
)

// Fetcher returns the latest raw trade batch from upstream.
type Fetcher interface {
	FetchTrades(ctx context.Context) ([]json.RawMessage, error)
}

type Options struct {
	Interval      time.Duration
	RecentCount   int
	DataDir       string
	BackupDir     string
	BackupOnStart bool
}

type Loop struct {
	opts      Options
	fetcher   Fetcher
	store     *memorystore.TradeStore
	persister *snapshot.Persister
	metrics   *metrics.Ingest
	logger    *zap.Logger
	now       func() time.Time
}

func NewLoop(opts Options, fetcher Fetcher, store *memorystore.TradeStore,
	persister *snapshot.Persister, m *metrics.Ingest, logger *zap.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	return &Loop{
		opts:      opts,
		fetcher:   fetcher,
		store:     store,
		persister: persister,
		metrics:   m,
		logger:    logger.Named("ingest"),
		now:       time.Now,
	}
}

// Run repeats RunOnce, sleeping Interval after each cycle, until ctx is done.
// A failed cycle is logged and the loop carries on. A backup of the current
// artifacts is taken when the loop exits, and at start if configured.
func (l *Loop) Run(ctx context.Context) error {
	if l.opts.BackupOnStart {
		l.Backup()
	}
	defer l.Backup()

	l.logger.Info("ingestion started", zap.Duration("interval", l.opts.Interval))
	for {
		if err := l.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("cycle failed", zap.Error(err))
		}

		timer := time.NewTimer(l.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.logger.Info("ingestion stopping", zap.Int("trades", l.store.Count()))
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce performs one fetch, update, compute and persist cycle.
func (l *Loop) RunOnce(ctx context.Context) error {
	start := l.now()
	l.metrics.CycleStarted()
	defer func() { l.metrics.ObserveCycle(time.Since(start)) }()

	raws, err := l.fetcher.FetchTrades(ctx)
	if err != nil {
		l.metrics.CycleFailed()
		return fmt.Errorf("fetch trades: %w", err)
	}

	batch, dropped := trade.ParseBatch(raws)
	if dropped > 0 {
		l.logger.Warn("dropped malformed trades", zap.Int("dropped", dropped), zap.Int("fetched", len(raws)))
	}
	added := l.store.Update(batch)
	total := l.store.Count()
	l.metrics.Batch(len(raws), dropped, added, total)

	views := analytics.Compute(l.store.GetAll(), l.now())
	in := snapshot.Input{
		Recent: l.store.GetRecent(l.opts.RecentCount),
		BySize: l.store.GetSortedBySize(),
		Chrono: l.store.GetSortedChronologically(),
		Views:  views,
	}
	if err := l.persister.Persist(ctx, in); err != nil {
		l.metrics.CycleFailed()
		return fmt.Errorf("persist snapshots: %w", err)
	}

	l.logger.Info("cycle complete",
		zap.Int("fetched", len(raws)),
		zap.Int("new", added),
		zap.Int("total", total),
		zap.Int("whales", len(views.Whales)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Backup copies the current artifacts into a timestamped backup directory.
// Failures are logged only.
func (l *Loop) Backup() {
	if l.opts.BackupDir == "" {
		return
	}
	dest, n, err := snapshot.Backup(l.opts.DataDir, l.opts.BackupDir, snapshot.Names(), l.now())
	if err != nil {
		l.logger.Error("backup failed", zap.String("dir", dest), zap.Error(err))
	}
	if n > 0 {
		l.logger.Info("backup created", zap.String("dir", dest), zap.Int("files", n))
	}
}
