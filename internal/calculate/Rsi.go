package calculate

// RSI uses Wilder smoothing seeded by the simple average of the first period deltas.
// With fewer than period+1 samples no loss has been observed and the result is 100.
func RSI(series []float64, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return 100.0
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(series); i++ {
		change := series[i] - series[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
