package analytics

import (
	"time"

	"tradepulse/internal/trade"
)

// OrderFlow is the buy/sell pressure of one market inside the trailing window.
type OrderFlow struct {
	BuyVolume     float64 `json:"buy_volume"`
	SellVolume    float64 `json:"sell_volume"`
	BuyCount      int     `json:"buy_count"`
	SellCount     int     `json:"sell_count"`
	Imbalance     float64 `json:"imbalance"`
	MomentumScore float64 `json:"momentum_score"`
}

// ComputeOrderFlow accumulates buy and sell notional and counts per market
// for trades within Window of now. Trades outside the window are excluded,
// so markets with no recent trades are absent from the result.
func ComputeOrderFlow(trades []trade.Trade, now time.Time) map[string]*OrderFlow {
	flows := make(map[string]*OrderFlow)

	for _, t := range trades {
		if !inWindow(t, now) {
			continue
		}
		f, ok := flows[t.MarketTitle]
		if !ok {
			f = &OrderFlow{}
			flows[t.MarketTitle] = f
		}

		if t.ResolveSide() == trade.Buy {
			f.BuyVolume += t.Notional()
			f.BuyCount++
		} else {
			f.SellVolume += t.Notional()
			f.SellCount++
		}
	}

	for _, f := range flows {
		f.Imbalance = f.BuyVolume - f.SellVolume
		f.MomentumScore = Momentum(f.BuyCount, f.SellCount)
	}
	return flows
}

// Momentum returns (buys - sells) / (buys + sells), or 0 when both are 0.
func Momentum(buys, sells int) float64 {
	total := buys + sells
	if total == 0 {
		return 0
	}
	return float64(buys-sells) / float64(total)
}
