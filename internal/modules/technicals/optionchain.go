package technicals

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxStrikePCR caps per-strike ratios where call OI is zero or tiny
const MaxStrikePCR = 10.0

var pcrVerdicts = []struct {
	lower, upper float64
	verdict      string
}{
	{0, 0.4, "Over Sold"},
	{0.4, 0.6, "Very Bearish"},
	{0.6, 0.8, "Bearish"},
	{0.8, 1.0, "Mildly Bullish"},
	{1.0, 1.2, "Bullish"},
	{1.2, 1.5, "Very Bullish"},
	{1.5, math.Inf(1), "Over Bought"},
}

// StrikeRow is the open interest at one strike for a single expiry
type StrikeRow struct {
	Strike       float64 `json:"strike"`
	CallOI       float64 `json:"call_oi"`
	PutOI        float64 `json:"put_oi"`
	CallChangeOI float64 `json:"call_change_oi"`
	PutChangeOI  float64 `json:"put_change_oi"`
}

// PCR returns the strike's put/call open interest ratio capped at MaxStrikePCR
func (r StrikeRow) PCR() float64 {
	if r.CallOI == 0 {
		if r.PutOI == 0 {
			return 0
		}
		return MaxStrikePCR
	}
	return math.Min(round2(r.PutOI/r.CallOI), MaxStrikePCR)
}

// PCR returns the overall put/call ratio of a chain, rounded to two places
func PCR(rows []StrikeRow) (float64, bool) {
	calls := make([]float64, len(rows))
	puts := make([]float64, len(rows))
	for i, r := range rows {
		calls[i] = r.CallOI
		puts[i] = r.PutOI
	}

	totalCalls := floats.Sum(calls)
	if totalCalls == 0 {
		return 0, false
	}
	return round2(floats.Sum(puts) / totalCalls), true
}

// PCRVerdict maps a put/call ratio to a market bias
func PCRVerdict(pcr float64) string {
	for _, v := range pcrVerdicts {
		if v.lower <= pcr && pcr < v.upper {
			return v.verdict
		}
	}
	return "Invalid"
}

// Levels summarises where option writers are concentrated
type Levels struct {
	MaxCallStrike float64 `json:"max_call_strike"`
	MaxPutStrike  float64 `json:"max_put_strike"`
	Support       float64 `json:"support"`    // strike below spot with the most put OI
	Resistance    float64 `json:"resistance"` // strike above spot with the most call OI
	HasSupport    bool    `json:"has_support"`
	HasResistance bool    `json:"has_resistance"`
}

// SupportResistance locates max OI strikes overall and on each side of spot
func SupportResistance(rows []StrikeRow, spot float64) Levels {
	var out Levels
	if len(rows) == 0 {
		return out
	}

	calls := make([]float64, len(rows))
	puts := make([]float64, len(rows))
	for i, r := range rows {
		calls[i] = r.CallOI
		puts[i] = r.PutOI
	}
	out.MaxCallStrike = rows[floats.MaxIdx(calls)].Strike
	out.MaxPutStrike = rows[floats.MaxIdx(puts)].Strike

	var below, above []StrikeRow
	for _, r := range rows {
		switch {
		case r.Strike < spot:
			below = append(below, r)
		case r.Strike > spot:
			above = append(above, r)
		}
	}

	if len(below) > 0 {
		belowPuts := make([]float64, len(below))
		for i, r := range below {
			belowPuts[i] = r.PutOI
		}
		out.Support = below[floats.MaxIdx(belowPuts)].Strike
		out.HasSupport = true
	}
	if len(above) > 0 {
		aboveCalls := make([]float64, len(above))
		for i, r := range above {
			aboveCalls[i] = r.CallOI
		}
		out.Resistance = above[floats.MaxIdx(aboveCalls)].Strike
		out.HasResistance = true
	}

	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
