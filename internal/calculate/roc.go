package calculate

// ROC is the percentage change of the last value against the value n samples back
func ROC(series []float64, n int) float64 {
	if n <= 0 || len(series) <= n {
		return 0
	}
	prev := series[len(series)-1-n]
	if prev == 0 {
		return 0
	}
	return (series[len(series)-1] - prev) / prev * 100
}
