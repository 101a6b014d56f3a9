// Package trade defines the immutable trade record shared by the store,
// analytics and snapshot writers.
package trade

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 second-resolution UTC form used in artifacts.
const TimeLayout = "2006-01-02T15:04:05Z"

// Side of a trade after resolution.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Trade is one executed trade. Field tags match the artifact wire names.
type Trade struct {
	Size            float64   `json:"size"`
	MarketTitle     string    `json:"market_title"`
	Outcome         string    `json:"outcome"`
	Price           float64   `json:"price"`
	Timestamp       Timestamp `json:"ts_iso"`
	TraderName      string    `json:"name"`
	TraderPseudonym string    `json:"pseudonym"`
	TraderWallet    string    `json:"proxyWallet"`
	TransactionHash string    `json:"transactionHash"`
	Side            string    `json:"side"`
	OutcomeIndex    int       `json:"outcomeIndex"`
}

// Notional returns size × price, the trade's USD-equivalent value.
func (t Trade) Notional() float64 {
	return t.Size * t.Price
}

// Trader resolves the trader identity: name, else pseudonym, else wallet.
func (t Trade) Trader() string {
	switch {
	case t.TraderName != "":
		return t.TraderName
	case t.TraderPseudonym != "":
		return t.TraderPseudonym
	default:
		return t.TraderWallet
	}
}

// ResolveSide classifies the trade as buy or sell. A side string containing
// "buy" wins over one containing "sell"; with neither, outcome index 0 is a buy.
func (t Trade) ResolveSide() Side {
	raw := strings.ToLower(t.Side)
	switch {
	case strings.Contains(raw, "buy"):
		return Buy
	case strings.Contains(raw, "sell"):
		return Sell
	case t.OutcomeIndex == 0:
		return Buy
	default:
		return Sell
	}
}

// Timestamp is a UTC instant truncated to the second that encodes as
// "YYYY-MM-DDThh:mm:ssZ".
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC at second resolution.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

// Unix builds a Timestamp from epoch seconds.
func Unix(sec int64) Timestamp {
	return Timestamp{time.Unix(sec, 0).UTC()}
}

func (ts Timestamp) String() string {
	return ts.UTC().Format(TimeLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*ts = NewTimestamp(t)
	return nil
}
