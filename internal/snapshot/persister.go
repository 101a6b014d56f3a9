package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradepulse/internal/analytics"
	"tradepulse/internal/metrics"
	"tradepulse/internal/trade"
)

// Sink receives a copy of every artifact that was written successfully.
type Sink interface {
	StoreSnapshot(ctx context.Context, name string, content []byte, version int64, writtenAt time.Time) error
}

// Input is everything one cycle publishes.
type Input struct {
	Recent []trade.Trade
	BySize []trade.Trade
	Chrono []trade.Trade
	Views  analytics.Views
}

type Persister struct {
	writer  *Writer
	sinks   []Sink
	metrics *metrics.Ingest
	logger  *zap.Logger
}

func NewPersister(writer *Writer, m *metrics.Ingest, logger *zap.Logger, sinks ...Sink) *Persister {
	return &Persister{
		writer:  writer,
		sinks:   sinks,
		metrics: m,
		logger:  logger.Named("persister"),
	}
}

type artifact struct {
	name   string
	encode func() ([]byte, error)
}

// Persist writes all seven artifacts. A failed artifact is logged and leaves
// its previous file in place; the others are still written. The returned
// error joins every failure.
func (p *Persister) Persist(ctx context.Context, in Input) error {
	jsonOf := func(v any) func() ([]byte, error) {
		return func() ([]byte, error) { return EncodeJSON(v) }
	}
	tableOf := func(ts []trade.Trade) func() ([]byte, error) {
		return func() ([]byte, error) { return EncodeTrades(ts) }
	}

	artifacts := []artifact{
		{RecentTrades, jsonOf(nonNil(in.Recent))},
		{Whales, jsonOf(nonNil(in.Views.Whales))},
		{TopTraders, jsonOf(in.Views.TopTraders)},
		{MarketStats, jsonOf(in.Views.MarketStats)},
		{OrderFlow, jsonOf(in.Views.OrderFlow)},
		{FullTradesBySize, tableOf(in.BySize)},
		{FullTradesChrono, tableOf(in.Chrono)},
	}

	var errs []error
	for _, a := range artifacts {
		if err := p.persist(ctx, a); err != nil {
			p.metrics.WriteFailed(a.name)
			p.logger.Error("artifact write failed", zap.String("artifact", a.name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Persister) persist(ctx context.Context, a artifact) error {
	data, err := a.encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.name, err)
	}

	modTime, err := p.writer.Write(a.name, data)
	if err != nil {
		return err
	}

	for _, s := range p.sinks {
		if err := s.StoreSnapshot(ctx, a.name, data, modTime.UnixMilli(), modTime); err != nil {
			p.logger.Warn("snapshot mirror failed", zap.String("artifact", a.name), zap.Error(err))
		}
	}
	return nil
}

func nonNil(ts []trade.Trade) []trade.Trade {
	if ts == nil {
		return []trade.Trade{}
	}
	return ts
}
