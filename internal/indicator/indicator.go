// Package indicator computes the technical indicators consumed by both scanners
// from raw close-price series (oldest first).
package indicator

import (
	"errors"
	"math"

	talib "github.com/markcheno/go-talib"
)

// ErrInsufficientData reports a series shorter than the indicator's minimum window.
var ErrInsufficientData = errors.New("insufficient data")

// RSI returns the relative strength index over the trailing period, rounded to
// two decimals. Gains and losses are simple averages of the last period steps;
// a lossless window is defined as RSI 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInsufficientData
	}
	if len(closes) < period+1 {
		return 0, ErrInsufficientData
	}

	window := closes[len(closes)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta >= 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return round2(100 - 100/(1+rs)), nil
}

// Volatility is the percent range of the most recent window closes relative to
// the latest close. A flat window yields 0.
func Volatility(closes []float64, window int) float64 {
	if len(closes) == 0 || window <= 0 {
		return 0
	}
	if window > len(closes) {
		window = len(closes)
	}
	recent := closes[len(closes)-window:]
	lo, hi := recent[0], recent[0]
	for _, c := range recent[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	latest := closes[len(closes)-1]
	if hi == lo || latest <= 0 {
		return 0
	}
	return (hi - lo) / latest * 100
}

// TrendRatio compares short-window to long-window standard deviation of the
// closes. Lower values indicate a tightening, grid-friendly market.
func TrendRatio(closes []float64, short, long int) (float64, error) {
	if short <= 0 || long <= 0 || short >= long {
		return 0, ErrInsufficientData
	}
	if len(closes) < long {
		return 0, ErrInsufficientData
	}

	// talib.StdDev(_, n, 1) yields the rolling population std-dev; the final
	// element covers the most recent n closes.
	tail := closes[len(closes)-long:]
	sigmaLong := last(talib.StdDev(tail, long, 1))
	sigmaShort := last(talib.StdDev(tail, short, 1))
	if sigmaLong == 0 {
		return 0, ErrInsufficientData
	}
	return sigmaShort / sigmaLong, nil
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
