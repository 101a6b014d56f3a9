// Package analytics derives the rolling views published as snapshots.
// Every function is pure over the trades passed in; the trailing-window
// views take the reference instant explicitly.
package analytics

import (
	"time"

	"tradepulse/internal/trade"
)

const (
	// WhaleThresholdUSD is the notional value a trade must exceed to count as a whale.
	WhaleThresholdUSD = 999.0

	// Window is the trailing span used for volatility and order flow.
	Window = 60 * time.Second
)

// Views bundles every derived view for one cycle.
type Views struct {
	Whales      []trade.Trade
	TopTraders  []TraderStats
	MarketStats map[string]*MarketStats
	OrderFlow   map[string]*OrderFlow
}

// Compute runs all four analytics over trades with now as the window anchor.
func Compute(trades []trade.Trade, now time.Time) Views {
	return Views{
		Whales:      ComputeWhales(trades),
		TopTraders:  ComputeTopTraders(trades),
		MarketStats: ComputeMarketStats(trades, now),
		OrderFlow:   ComputeOrderFlow(trades, now),
	}
}

// IsWhale reports whether t's notional value strictly exceeds the threshold.
func IsWhale(t trade.Trade) bool {
	return t.Notional() > WhaleThresholdUSD
}

// ComputeWhales returns the whale trades in input order.
func ComputeWhales(trades []trade.Trade) []trade.Trade {
	out := make([]trade.Trade, 0)
	for _, t := range trades {
		if IsWhale(t) {
			out = append(out, t)
		}
	}
	return out
}

func inWindow(t trade.Trade, now time.Time) bool {
	return !t.Timestamp.Before(now.Add(-Window))
}

// counter counts keys and remembers first-seen order so ties resolve
// to the earliest key.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *counter) top() string {
	best, bestN := "", 0
	for _, k := range c.keys {
		if n := c.counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best
}
