package calculate

import "math"

// TrueRanges returns max(h-l, |h-prevClose|, |l-prevClose|) for every bar after the first
func TrueRanges(highs, lows, closes []float64) []float64 {
	n := minLen(highs, lows, closes)
	if n < 2 {
		return nil
	}
	out := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		highLow := highs[i] - lows[i]
		highPrevClose := math.Abs(highs[i] - closes[i-1])
		lowPrevClose := math.Abs(lows[i] - closes[i-1])
		out = append(out, math.Max(highLow, math.Max(highPrevClose, lowPrevClose)))
	}
	return out
}

// ATR is the simple average of the last period true ranges, 0 with fewer than period+1 bars
func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || minLen(highs, lows, closes) < period+1 {
		return 0
	}
	tr := TrueRanges(highs, lows, closes)
	return SMA(tr, period)
}

// ATRPct expresses an ATR as a percentage of price
func ATRPct(atr, price float64) float64 {
	if price == 0 {
		return 0
	}
	return atr / price * 100
}

func minLen(series ...[]float64) int {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
