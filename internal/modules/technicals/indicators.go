// Package technicals computes the indicators attached to session reports.
package technicals

import (
	"math"
	"strconv"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// TypicalMovingAverages are the periods reported for each index
var TypicalMovingAverages = []int{10, 20, 50, 100, 200}

const (
	RSIPeriod = 14

	fastEMA = 20
	slowEMA = 50
)

// Crossover describes how a fast average crossed a slow one on the last bar
type Crossover string

const (
	CrossUp   Crossover = "Upside"
	CrossDown Crossover = "Downside"
	NoCross   Crossover = "No Crossover"
)

// RSI returns the latest Relative Strength Index, or false if there is not enough data
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	return last(talib.Rsi(closes, period))
}

// SMA returns the latest simple moving average
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	return last(talib.Sma(values, period))
}

// EMA returns the latest exponential moving average.
// Short series fall back to the plain mean.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) == 0 {
		return 0, false
	}
	if len(values) < period {
		return stat.Mean(values, nil), true
	}
	return last(talib.Ema(values, period))
}

// MovingAverages computes the latest EMA or SMA for each period that has enough data.
// Keys are "EMA20", "SMA50" and so on.
func MovingAverages(values []float64, kind string, periods []int) map[string]float64 {
	out := make(map[string]float64, len(periods))
	for _, p := range periods {
		var (
			v  float64
			ok bool
		)
		if kind == "EMA" {
			if len(values) < p {
				continue
			}
			v, ok = EMA(values, p)
		} else {
			v, ok = SMA(values, p)
		}
		if ok {
			out[kind+strconv.Itoa(p)] = v
		}
	}
	return out
}

// CrossoverOf compares the last two points of a fast and slow series
func CrossoverOf(fast, slow []float64) Crossover {
	n := len(fast)
	if n < 2 || len(slow) != n {
		return NoCross
	}
	prevFast, prevSlow := fast[n-2], slow[n-2]
	currFast, currSlow := fast[n-1], slow[n-1]

	switch {
	case prevFast <= prevSlow && currFast > currSlow:
		return CrossUp
	case prevFast >= prevSlow && currFast < currSlow:
		return CrossDown
	default:
		return NoCross
	}
}

// Trend summarises the momentum of a close series
type Trend struct {
	RSI       float64
	HasRSI    bool
	Averages  map[string]float64
	Crossover Crossover
}

// TrendOf computes RSI, the typical EMAs and the fast/slow EMA crossover
func TrendOf(closes []float64) Trend {
	t := Trend{
		Averages:  MovingAverages(closes, "EMA", TypicalMovingAverages),
		Crossover: NoCross,
	}
	t.RSI, t.HasRSI = RSI(closes, RSIPeriod)

	// two valid points on the slow average
	if len(closes) > slowEMA {
		t.Crossover = CrossoverOf(talib.Ema(closes, fastEMA), talib.Ema(closes, slowEMA))
	}
	return t
}

func last(series []float64) (float64, bool) {
	if len(series) == 0 || math.IsNaN(series[len(series)-1]) {
		return 0, false
	}
	return series[len(series)-1], true
}
