// Package snapshot publishes derived views as atomically replaced files.
package snapshot

import (
	"errors"
	"strings"
)

// Artifact file names shared by the writer and the cache.
const (
	RecentTrades     = "trades_recent.json"
	Whales           = "whales.json"
	TopTraders       = "traders_top.json"
	MarketStats      = "markets_stats.json"
	OrderFlow        = "orderflow.json"
	FullTradesBySize = "full_trades_sorted.txt"
	FullTradesChrono = "full_trades_chrono.txt"
)

// ErrUnknownArtifact rejects names that are not one of the published artifacts.
var ErrUnknownArtifact = errors.New("unknown artifact")

// Names lists every artifact in write order.
func Names() []string {
	return []string{
		RecentTrades,
		Whales,
		TopTraders,
		MarketStats,
		OrderFlow,
		FullTradesBySize,
		FullTradesChrono,
	}
}

// IsStructured reports whether the artifact holds JSON that readers parse.
func IsStructured(name string) bool {
	return strings.HasSuffix(name, ".json")
}

// Validate returns ErrUnknownArtifact for names outside Names().
func Validate(name string) error {
	for _, n := range Names() {
		if n == name {
			return nil
		}
	}
	return ErrUnknownArtifact
}
