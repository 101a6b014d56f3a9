package trade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformed marks an upstream record whose fields cannot be coerced.
var ErrMalformed = errors.New("malformed trade record")

// Upstream field names.
const (
	fieldSize            = "size"
	fieldTitle           = "title"
	fieldOutcome         = "outcome"
	fieldPrice           = "price"
	fieldTimestamp       = "timestamp"
	fieldName            = "name"
	fieldPseudonym       = "pseudonym"
	fieldProxyWallet     = "proxyWallet"
	fieldTransactionHash = "transactionHash"
	fieldSide            = "side"
	fieldOutcomeIndex    = "outcomeIndex"
)

// Parse coerces one upstream record into a Trade. Missing fields take their
// zero value; present fields that cannot be coerced (including null numerics)
// yield an error wrapping ErrMalformed.
func Parse(raw json.RawMessage) (Trade, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Trade{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return Trade{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	p := fieldParser{fields: fields}
	ts := p.integer(fieldTimestamp)
	t := Trade{
		Size:            p.float(fieldSize),
		MarketTitle:     p.str(fieldTitle),
		Outcome:         p.str(fieldOutcome),
		Price:           p.float(fieldPrice),
		Timestamp:       Unix(ts),
		TraderName:      p.str(fieldName),
		TraderPseudonym: p.str(fieldPseudonym),
		TraderWallet:    p.str(fieldProxyWallet),
		TransactionHash: p.str(fieldTransactionHash),
		Side:            strings.ToLower(p.str(fieldSide)),
		OutcomeIndex:    int(p.integer(fieldOutcomeIndex)),
	}
	if p.err != nil {
		return Trade{}, p.err
	}
	return t, nil
}

// ParseBatch parses every record and discards the ones that fail.
// It returns the accepted trades in input order and the number dropped.
func ParseBatch(raws []json.RawMessage) ([]Trade, int) {
	out := make([]Trade, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		t, err := Parse(raw)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

// fieldParser accumulates the first coercion error.
type fieldParser struct {
	fields map[string]json.RawMessage
	err    error
}

func (p *fieldParser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
	}
}

func (p *fieldParser) str(key string) string {
	raw, ok := p.fields[key]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return ""
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			p.fail(key, err)
		}
		return s
	case bytes.Equal(raw, []byte("true")), bytes.Equal(raw, []byte("false")):
		return string(raw)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			p.fail(key, err)
			return ""
		}
		return n.String()
	}
}

// number returns the numeric value of key as a decimal, accepting JSON numbers
// and numeric strings.
func (p *fieldParser) number(key string) (decimal.Decimal, bool) {
	raw, ok := p.fields[key]
	if !ok {
		return decimal.Zero, false
	}
	raw = bytes.TrimSpace(raw)

	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			p.fail(key, err)
			return decimal.Zero, false
		}
		text = strings.TrimSpace(text)
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			p.fail(key, fmt.Errorf("not a number: %s", raw))
			return decimal.Zero, false
		}
		text = n.String()
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		p.fail(key, err)
		return decimal.Zero, false
	}
	return d, true
}

func (p *fieldParser) float(key string) float64 {
	d, ok := p.number(key)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		p.fail(key, fmt.Errorf("out of range: %s", d))
		return 0
	}
	return f
}

// integer truncates JSON numbers toward zero; numeric strings must be integral.
func (p *fieldParser) integer(key string) int64 {
	raw := bytes.TrimSpace(p.fields[key])
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			p.fail(key, err)
			return 0
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			p.fail(key, err)
			return 0
		}
		return n
	}

	d, ok := p.number(key)
	if !ok {
		return 0
	}
	d = d.Truncate(0)
	if d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		p.fail(key, fmt.Errorf("out of range: %s", d))
		return 0
	}
	return d.IntPart()
}
