package calculate

// EMA seeds with the SMA of the first period values and then applies
// e[i] = x[i]*k + e[i-1]*(1-k), k = 2/(period+1). It returns 0 if the series is shorter than period.
func EMA(series []float64, period int) float64 {
	s := EMASeries(series, period)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// EMASeries returns the EMA value for every index from period-1 onwards
func EMASeries(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	// Calculate simple moving average for the initial value
	var sum float64
	for i := 0; i < period; i++ {
		sum += series[i]
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(series)-period+1)
	ema := sum / float64(period)
	out = append(out, ema)
	for i := period; i < len(series); i++ {
		ema = series[i]*k + ema*(1-k)
		out = append(out, ema)
	}

	return out
}
