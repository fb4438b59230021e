package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Exchange identifies one of the supported perpetual-futures venues.
type Exchange string

const (
	ExchangeBinance     Exchange = "Binance"
	ExchangeBybit       Exchange = "Bybit"
	ExchangeBitget      Exchange = "Bitget"
	ExchangeOKX         Exchange = "OKX"
	ExchangeHyperLiquid Exchange = "HyperLiquid"
	ExchangeGate        Exchange = "Gate"
)

// DefaultSettlementHours is the interval assumed when an exchange does not
// report one for an instrument.
const DefaultSettlementHours = 8.0

// Percent is a funding rate expressed in percent, not as a fraction.
// On the wire it is a quoted decimal string with 4 fractional digits,
// which is what the dashboard consumes; internally it is numeric.
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(p), 'f', 4, 64))), nil
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid percent value %s: %w", data, err)
	}
	*p = Percent(v)
	return nil
}

// Rate is one exchange's current funding rate for one symbol, normalized to
// the common schema: percent units, quote suffix stripped, interval in hours.
type Rate struct {
	Symbol             string   `json:"symbol"`
	Exchange           Exchange `json:"exchange"`
	CurrentRate        Percent  `json:"currentRate"`
	SettlementInterval float64  `json:"settlementInterval"`
	IsSpecialInterval  bool     `json:"isSpecialInterval"`
	NextFundingTime    int64    `json:"nextFundingTime,omitempty"`
	FundingTime        int64    `json:"fundingTime,omitempty"`
}

// NewRate builds a canonical Rate. A non-positive interval falls back to the
// 8h default; the special-interval flag is derived, never set directly.
func NewRate(symbol string, exchange Exchange, ratePct float64, intervalHours float64) Rate {
	if intervalHours <= 0 {
		intervalHours = DefaultSettlementHours
	}
	return Rate{
		Symbol:             symbol,
		Exchange:           exchange,
		CurrentRate:        Percent(ratePct),
		SettlementInterval: intervalHours,
		IsSpecialInterval:  intervalHours != DefaultSettlementHours,
	}
}

// Valid reports whether the rate may enter the merged set. A rate of exactly
// zero is treated as "no signal" rather than a true zero funding rate.
func (r Rate) Valid() bool {
	if r.Symbol == "" || r.Exchange == "" {
		return false
	}
	v := float64(r.CurrentRate)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return true
}

// Snapshot is the single live view of the system: the merged rate set, the
// opportunities computed from it, and when the fetch completed. It is always
// replaced wholesale, never mutated in place.
type Snapshot struct {
	Rates         []Rate
	Opportunities []ArbitrageOpportunity
	FetchedAt     time.Time
}
