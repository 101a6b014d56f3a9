package analytics

import (
	"math"
	"time"

	"tradepulse/internal/trade"
)

// MarketStats aggregates one market over the full trade history.
type MarketStats struct {
	LastPrice    float64            `json:"last_price"`
	TotalVolume  float64            `json:"total_volume"`
	BuyCount     int                `json:"buy_count"`
	SellCount    int                `json:"sell_count"`
	WhaleCount   int                `json:"whale_count"`
	Volatility1m float64            `json:"volatility_1m"`
	Outcomes     map[string]float64 `json:"outcomes"`
}

// ComputeMarketStats aggregates every trade per market title. LastPrice is the
// price of the last trade in input order. Volatility1m is the population
// standard deviation of the market's prices whose timestamp is within Window
// of now; fewer than two such prices give 0.
func ComputeMarketStats(trades []trade.Trade, now time.Time) map[string]*MarketStats {
	markets := make(map[string]*MarketStats)
	recent := make(map[string][]float64)

	for _, t := range trades {
		m, ok := markets[t.MarketTitle]
		if !ok {
			m = &MarketStats{Outcomes: make(map[string]float64)}
			markets[t.MarketTitle] = m
		}

		notional := t.Notional()
		m.LastPrice = t.Price
		m.TotalVolume += notional
		if t.ResolveSide() == trade.Buy {
			m.BuyCount++
		} else {
			m.SellCount++
		}
		if IsWhale(t) {
			m.WhaleCount++
		}
		m.Outcomes[t.Outcome] += notional

		if inWindow(t, now) {
			recent[t.MarketTitle] = append(recent[t.MarketTitle], t.Price)
		}
	}

	for title, m := range markets {
		m.Volatility1m = PopulationStdDev(recent[title])
	}
	return markets
}

// PopulationStdDev returns the population standard deviation of xs,
// or 0 when fewer than two values are given.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
