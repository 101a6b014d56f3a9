package analytics

import (
	"sort"

	"tradepulse/internal/trade"
)

// TraderStats is one row of the trader leaderboard.
type TraderStats struct {
	Name        string  `json:"name"`
	TotalVolume float64 `json:"total_volume"`
	TradeCount  int     `json:"trade_count"`
	TopMarket   string  `json:"top_market"`
	TopOutcome  string  `json:"top_outcome"`
}

type traderAgg struct {
	name     string
	volume   float64
	count    int
	markets  *counter
	outcomes *counter
}

// ComputeTopTraders groups trades by resolved trader identity and returns
// the leaderboard sorted by total notional volume, largest first. Traders
// with equal volume keep first-seen order.
func ComputeTopTraders(trades []trade.Trade) []TraderStats {
	byName := make(map[string]*traderAgg)
	var seen []*traderAgg

	for _, t := range trades {
		name := t.Trader()
		agg, ok := byName[name]
		if !ok {
			agg = &traderAgg{name: name, markets: newCounter(), outcomes: newCounter()}
			byName[name] = agg
			seen = append(seen, agg)
		}
		agg.volume += t.Notional()
		agg.count++
		agg.markets.add(t.MarketTitle)
		agg.outcomes.add(t.Outcome)
	}

	out := make([]TraderStats, 0, len(seen))
	for _, agg := range seen {
		out = append(out, TraderStats{
			Name:        agg.name,
			TotalVolume: agg.volume,
			TradeCount:  agg.count,
			TopMarket:   agg.markets.top(),
			TopOutcome:  agg.outcomes.top(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalVolume > out[j].TotalVolume
	})
	return out
}
