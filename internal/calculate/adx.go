package calculate

import "math"

// ADX computes Wilder's average directional index. It needs 2*period bars, else 0.
// Smoothed values follow s[i] = s[i-1] - s[i-1]/period + raw[i]; ADX is the simple
// average of the last period DX values.
func ADX(highs, lows, closes []float64, period int) float64 {
	n := minLen(highs, lows, closes)
	if period <= 0 || n < period*2 {
		return 0
	}

	var plusDM, minusDM []float64
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		pDM := 0.0
		if upMove > downMove && upMove > 0 {
			pDM = upMove
		}
		plusDM = append(plusDM, pDM)

		mDM := 0.0
		if downMove > upMove && downMove > 0 {
			mDM = downMove
		}
		minusDM = append(minusDM, mDM)
	}
	trueRange := TrueRanges(highs[:n], lows[:n], closes[:n])

	var smoothedPlusDM, smoothedMinusDM, smoothedTR float64
	for i := 0; i < period; i++ {
		smoothedPlusDM += plusDM[i]
		smoothedMinusDM += minusDM[i]
		smoothedTR += trueRange[i]
	}

	dx := []float64{directionalIndex(smoothedPlusDM, smoothedMinusDM, smoothedTR)}
	p := float64(period)
	for i := period; i < len(trueRange); i++ {
		smoothedPlusDM = smoothedPlusDM - smoothedPlusDM/p + plusDM[i]
		smoothedMinusDM = smoothedMinusDM - smoothedMinusDM/p + minusDM[i]
		smoothedTR = smoothedTR - smoothedTR/p + trueRange[i]
		dx = append(dx, directionalIndex(smoothedPlusDM, smoothedMinusDM, smoothedTR))
	}

	adx := SMA(dx, period)
	return math.Max(0, math.Min(100, adx))
}

func directionalIndex(plusDM, minusDM, tr float64) float64 {
	if tr == 0 {
		tr = 1
	}
	plusDI := plusDM / tr * 100
	minusDI := minusDM / tr * 100
	sum := plusDI + minusDI
	if sum == 0 {
		sum = 1
	}
	return math.Abs(plusDI-minusDI) / sum * 100
}
