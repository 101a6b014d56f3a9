package analytics

import (
	"math"
	"testing"
	"time"

	"tradepulse/internal/trade"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func at(ago time.Duration) trade.Timestamp {
	return trade.NewTimestamp(now.Add(-ago))
}

func TestComputeWhales(t *testing.T) {
	trades := []trade.Trade{
		{TransactionHash: "exact", Size: 999, Price: 1},
		{TransactionHash: "over", Size: 1000, Price: 1},
		{TransactionHash: "small", Size: 10, Price: 0.5},
		{TransactionHash: "big", Size: 4000, Price: 0.3},
	}

	got := ComputeWhales(trades)
	if len(got) != 2 || got[0].TransactionHash != "over" || got[1].TransactionHash != "big" {
		t.Fatalf("unexpected whales: %+v", got)
	}

	for _, tr := range trades {
		in := false
		for _, w := range got {
			in = in || w.TransactionHash == tr.TransactionHash
		}
		if in != (tr.Size*tr.Price > 999) {
			t.Errorf("%s: membership %v disagrees with threshold", tr.TransactionHash, in)
		}
	}

	if empty := ComputeWhales(nil); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestComputeTopTraders(t *testing.T) {
	trades := []trade.Trade{
		{TraderName: "alice", MarketTitle: "M1", Outcome: "Yes", Size: 10, Price: 1},
		{TraderPseudonym: "bob-p", MarketTitle: "M2", Outcome: "No", Size: 100, Price: 1},
		{TraderName: "alice", MarketTitle: "M2", Outcome: "No", Size: 10, Price: 1},
		{TraderWallet: "0xcarol", MarketTitle: "M3", Outcome: "Yes", Size: 5, Price: 1},
		{TraderName: "alice", MarketTitle: "M2", Outcome: "Yes", Size: 10, Price: 1},
	}

	got := ComputeTopTraders(trades)
	if len(got) != 3 {
		t.Fatalf("expected 3 traders, got %d", len(got))
	}
	if got[0].Name != "bob-p" || got[1].Name != "alice" || got[2].Name != "0xcarol" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}

	alice := got[1]
	if alice.TradeCount != 3 || alice.TotalVolume != 30 {
		t.Errorf("unexpected alice aggregate: %+v", alice)
	}
	if alice.TopMarket != "M2" {
		t.Errorf("expected top market M2, got %s", alice.TopMarket)
	}
	if alice.TopOutcome != "Yes" {
		t.Errorf("expected top outcome Yes, got %s", alice.TopOutcome)
	}
}

func TestTopTradersTieBreaks(t *testing.T) {
	trades := []trade.Trade{
		{TraderName: "x", MarketTitle: "B", Outcome: "No", Size: 1, Price: 1},
		{TraderName: "x", MarketTitle: "A", Outcome: "Yes", Size: 1, Price: 1},
		{TraderName: "y", MarketTitle: "A", Outcome: "Yes", Size: 2, Price: 1},
	}

	got := ComputeTopTraders(trades)
	if got[0].Name != "x" || got[1].Name != "y" {
		t.Errorf("equal volumes should keep first-seen order, got %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].TopMarket != "B" || got[0].TopOutcome != "No" {
		t.Errorf("expected first-encountered keys on tie, got %s/%s", got[0].TopMarket, got[0].TopOutcome)
	}
}

func TestComputeMarketStats(t *testing.T) {
	trades := []trade.Trade{
		{MarketTitle: "M", Outcome: "Yes", Size: 1, Price: 10, Timestamp: at(10 * time.Second), Side: "buy"},
		{MarketTitle: "M", Outcome: "No", Size: 1, Price: 40, Timestamp: at(5 * time.Minute), Side: "sell"},
		{MarketTitle: "M", Outcome: "Yes", Size: 50, Price: 20, Timestamp: at(20 * time.Second), Side: "buy"},
		{MarketTitle: "M", Outcome: "Yes", Size: 1, Price: 30, Timestamp: at(30 * time.Second), Side: "sell"},
		{MarketTitle: "N", Outcome: "Yes", Size: 1, Price: 5, Timestamp: at(time.Second)},
	}

	stats := ComputeMarketStats(trades, now)
	m := stats["M"]
	if m == nil {
		t.Fatal("market M missing")
	}

	if m.LastPrice != 30 {
		t.Errorf("expected last price 30, got %v", m.LastPrice)
	}
	if m.TotalVolume != 10+40+1000+30 {
		t.Errorf("unexpected total volume %v", m.TotalVolume)
	}
	if m.BuyCount != 2 || m.SellCount != 2 {
		t.Errorf("unexpected buy/sell counts %d/%d", m.BuyCount, m.SellCount)
	}
	if m.WhaleCount != 1 {
		t.Errorf("expected 1 whale, got %d", m.WhaleCount)
	}
	if m.Outcomes["Yes"] != 1040 || m.Outcomes["No"] != 40 {
		t.Errorf("unexpected outcome breakdown %v", m.Outcomes)
	}

	want := math.Sqrt(200.0 / 3.0)
	if math.Abs(m.Volatility1m-want) > 1e-9 {
		t.Errorf("expected volatility %.4f, got %.4f", want, m.Volatility1m)
	}
	if math.Abs(m.Volatility1m-8.165) > 1e-3 {
		t.Errorf("expected volatility ≈ 8.165, got %v", m.Volatility1m)
	}

	if n := stats["N"]; n == nil || n.Volatility1m != 0 {
		t.Errorf("single recent price must give zero volatility, got %+v", n)
	}
}

func TestMarketStatsEmptySideFallsBackToBuy(t *testing.T) {
	trades := []trade.Trade{
		{MarketTitle: "M", Side: "", OutcomeIndex: 0, Size: 1, Price: 1},
		{MarketTitle: "M", Side: "", OutcomeIndex: 0, Size: 2, Price: 1},
		{MarketTitle: "M", Side: "", OutcomeIndex: 0, Size: 3, Price: 1},
	}

	m := ComputeMarketStats(trades, now)["M"]
	if m.BuyCount != 3 || m.SellCount != 0 {
		t.Errorf("expected all buys, got buy=%d sell=%d", m.BuyCount, m.SellCount)
	}
}

func TestComputeOrderFlow(t *testing.T) {
	trades := []trade.Trade{
		{MarketTitle: "M", Side: "buy", Size: 10, Price: 1, Timestamp: at(5 * time.Second)},
		{MarketTitle: "M", Side: "buy", Size: 5, Price: 2, Timestamp: at(59 * time.Second)},
		{MarketTitle: "M", Side: "sell", Size: 4, Price: 1, Timestamp: at(60 * time.Second)},
		{MarketTitle: "M", Side: "sell", Size: 100, Price: 1, Timestamp: at(2 * time.Minute)},
		{MarketTitle: "Old", Side: "buy", Size: 1, Price: 1, Timestamp: at(time.Hour)},
	}

	flows := ComputeOrderFlow(trades, now)
	if _, ok := flows["Old"]; ok {
		t.Error("market with only stale trades must be absent")
	}

	f := flows["M"]
	if f == nil {
		t.Fatal("market M missing")
	}
	if f.BuyVolume != 20 || f.SellVolume != 4 {
		t.Errorf("unexpected volumes %v/%v", f.BuyVolume, f.SellVolume)
	}
	if f.BuyCount != 2 || f.SellCount != 1 {
		t.Errorf("unexpected counts %d/%d", f.BuyCount, f.SellCount)
	}
	if f.Imbalance != 16 {
		t.Errorf("expected imbalance 16, got %v", f.Imbalance)
	}
	if math.Abs(f.MomentumScore-1.0/3.0) > 1e-12 {
		t.Errorf("expected momentum 1/3, got %v", f.MomentumScore)
	}
}

func TestMomentumBounds(t *testing.T) {
	if Momentum(0, 0) != 0 {
		t.Error("expected 0 momentum with no trades")
	}
	for b := 0; b < 20; b++ {
		for s := 0; s < 20; s++ {
			m := Momentum(b, s)
			if m < -1 || m > 1 {
				t.Fatalf("momentum(%d,%d)=%v out of bounds", b, s, m)
			}
		}
	}
	if Momentum(5, 0) != 1 || Momentum(0, 5) != -1 {
		t.Error("expected extreme momentum at one-sided flow")
	}
}

func TestPopulationStdDev(t *testing.T) {
	if PopulationStdDev(nil) != 0 || PopulationStdDev([]float64{3}) != 0 {
		t.Error("expected 0 for fewer than two values")
	}
	if got := PopulationStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}

func TestCompute(t *testing.T) {
	trades := []trade.Trade{
		{TransactionHash: "a", TraderName: "z", MarketTitle: "M", Size: 2000, Price: 1, Timestamp: at(time.Second)},
	}
	v := Compute(trades, now)
	if len(v.Whales) != 1 || len(v.TopTraders) != 1 || v.MarketStats["M"] == nil || v.OrderFlow["M"] == nil {
		t.Errorf("unexpected views: %+v", v)
	}
}
