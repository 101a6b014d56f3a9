package trade

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	raw := json.RawMessage(`{
		"size": 10,
		"title": "Will it rain?",
		"outcome": "Yes",
		"price": "0.55",
		"timestamp": 1700000000,
		"name": "alice",
		"pseudonym": "Quiet-Fox",
		"proxyWallet": "0xabc",
		"transactionHash": "0xhash",
		"side": "BUY",
		"outcomeIndex": 1,
		"extra": {"ignored": true}
	}`)

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Size != 10 || got.Price != 0.55 {
		t.Errorf("unexpected size/price: %v/%v", got.Size, got.Price)
	}
	if got.MarketTitle != "Will it rain?" || got.Outcome != "Yes" {
		t.Errorf("unexpected market/outcome: %q/%q", got.MarketTitle, got.Outcome)
	}
	if got.Timestamp.String() != "2023-11-14T22:13:20Z" {
		t.Errorf("unexpected timestamp: %s", got.Timestamp)
	}
	if got.Side != "buy" {
		t.Errorf("expected side lower-cased, got %q", got.Side)
	}
	if got.OutcomeIndex != 1 {
		t.Errorf("expected outcome index 1, got %d", got.OutcomeIndex)
	}
	if got.TransactionHash != "0xhash" || got.TraderWallet != "0xabc" {
		t.Errorf("unexpected identifiers: %+v", got)
	}
}

func TestParseDefaultsAndCoercion(t *testing.T) {
	got, err := Parse(json.RawMessage(`{"transactionHash": 42, "timestamp": "1700000000", "size": 1.9e1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TransactionHash != "42" {
		t.Errorf("expected numeric hash coerced to text, got %q", got.TransactionHash)
	}
	if got.Size != 19 {
		t.Errorf("expected size 19, got %v", got.Size)
	}
	if got.Price != 0 || got.OutcomeIndex != 0 || got.Side != "" {
		t.Errorf("expected zero defaults, got %+v", got)
	}

	truncated, err := Parse(json.RawMessage(`{"timestamp": 1700000000.9}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truncated.Timestamp.Unix() != 1700000000 {
		t.Errorf("expected truncated timestamp, got %d", truncated.Timestamp.Unix())
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"not an object":     `[1,2]`,
		"null":              `null`,
		"bad size":          `{"size": "lots"}`,
		"null price":        `{"price": null}`,
		"bool size":         `{"size": true}`,
		"fractional string": `{"timestamp": "1.5"}`,
		"object index":      `{"outcomeIndex": {}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(json.RawMessage(raw))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseBatchDropsIndividually(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"transactionHash": "a", "size": 1}`),
		json.RawMessage(`{"transactionHash": "b", "size": "x"}`),
		json.RawMessage(`{"transactionHash": "c", "size": 2}`),
	}

	trades, dropped := ParseBatch(raws)
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	if len(trades) != 2 || trades[0].TransactionHash != "a" || trades[1].TransactionHash != "c" {
		t.Errorf("unexpected accepted trades: %+v", trades)
	}
}

func TestResolveSide(t *testing.T) {
	cases := []struct {
		side  string
		index int
		want  Side
	}{
		{"BUY", 1, Buy},
		{"market-sell", 0, Sell},
		{"buy/sell", 1, Buy},
		{"", 0, Buy},
		{"", 1, Sell},
		{"unknown", 2, Sell},
	}
	for _, tc := range cases {
		got := Trade{Side: tc.side, OutcomeIndex: tc.index}.ResolveSide()
		if got != tc.want {
			t.Errorf("side=%q index=%d: expected %s, got %s", tc.side, tc.index, tc.want, got)
		}
	}
}

func TestTrader(t *testing.T) {
	if got := (Trade{TraderName: "n", TraderPseudonym: "p", TraderWallet: "w"}).Trader(); got != "n" {
		t.Errorf("expected name, got %q", got)
	}
	if got := (Trade{TraderPseudonym: "p", TraderWallet: "w"}).Trader(); got != "p" {
		t.Errorf("expected pseudonym, got %q", got)
	}
	if got := (Trade{TraderWallet: "w"}).Trader(); got != "w" {
		t.Errorf("expected wallet, got %q", got)
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 1, 23, 18, 0, 0, 500, time.FixedZone("CET", 3600)))

	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2026-01-23T17:00:00Z"` {
		t.Errorf("unexpected encoding: %s", b)
	}

	var back Timestamp
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ts.Time) {
		t.Errorf("round trip mismatch: %s vs %s", back, ts)
	}
}
