package calculate

// MACDHistogram returns MACD line minus its signal line for the last bar
func MACDHistogram(closes []float64, fastPeriod, slowPeriod, signalPeriod int) float64 {
	// Cannot calculate MACD with insufficient data
	if len(closes) < slowPeriod+signalPeriod {
		return 0
	}

	fast := EMASeries(closes, fastPeriod)
	slow := EMASeries(closes, slowPeriod)
	if len(fast) == 0 || len(slow) == 0 {
		return 0
	}

	// Both series end on the last close; align the fast one to the slow start
	offset := len(fast) - len(slow)
	macd := make([]float64, len(slow))
	for i := range slow {
		macd[i] = fast[i+offset] - slow[i]
	}

	signal := EMA(macd, signalPeriod)
	return macd[len(macd)-1] - signal
}
