package snapshot

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"strings"

	"tradepulse/internal/trade"
)

// Columns is the fixed header of the full trade dumps.
var Columns = []string{
	"size",
	"market_title",
	"outcome",
	"price",
	"ts_iso",
	"name",
	"pseudonym",
	"proxyWallet",
	"transactionHash",
	"side",
	"outcomeIndex",
}

// EncodeTrades renders trades as semicolon-delimited rows with a header.
// Rows end in CRLF.
func EncodeTrades(trades []trade.Trade) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true

	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, t := range trades {
		row := []string{
			formatFloat(t.Size),
			t.MarketTitle,
			t.Outcome,
			formatFloat(t.Price),
			t.Timestamp.String(),
			t.TraderName,
			t.TraderPseudonym,
			t.TraderWallet,
			t.TransactionHash,
			t.Side,
			strconv.Itoa(t.OutcomeIndex),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatFloat renders the shortest round-trip form, keeping a ".0" on
// integral values and switching to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
