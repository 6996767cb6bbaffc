package market

import (
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// RegimeParams holds the classifier thresholds
type RegimeParams struct {
	ADXStrong       float64 `yaml:"adx_strong"`
	MaxBandWidthPct float64 `yaml:"max_band_width_pct"`
	MaxATRPct       float64 `yaml:"max_atr_pct"`
}

// DefaultRegimeParams returns the stock thresholds
func DefaultRegimeParams() RegimeParams {
	return RegimeParams{
		ADXStrong:       25,
		MaxBandWidthPct: 2.0,
		MaxATRPct:       0.8,
	}
}

// ClassifyRegime derives the directional bias from the daily and 4h sets and the
// compression/expansion state from the 15m set and the session VWAP band.
// A missing band never counts as compression.
func ClassifyRegime(daily, h4, ltf models.IndicatorSet, price float64, band *models.VwapBand, p RegimeParams) models.Regime {
	adx, ok := h4.ADX()
	adxStrong := ok && adx >= p.ADXStrong

	var r models.Regime
	r.ADXStrong = adxStrong
	r.HTFTrend = models.TrendRange

	hasEMA := daily.EMA50 > 0 && daily.EMA200 > 0
	switch {
	case h4.EMA50 > 0 && price > h4.EMA50 && ((hasEMA && daily.EMA50 > daily.EMA200) || adxStrong):
		r.HTFTrend = models.TrendUp
	case h4.EMA50 > 0 && price < h4.EMA50 && ((hasEMA && daily.EMA50 < daily.EMA200) || adxStrong):
		r.HTFTrend = models.TrendDown
	}

	highVol := ltf.RelVolumeLevel.IsHigh()
	r.LTFCompression = band != nil &&
		band.BandWidthPct <= p.MaxBandWidthPct &&
		ltf.ATRPct <= p.MaxATRPct &&
		!highVol
	r.LTFExpansion = !r.LTFCompression && (math.Abs(ltf.ROC10) >= ltf.ATRPct || highVol)

	return r
}

// Opposes reports whether a play direction runs against the higher timeframe trend
func Opposes(r models.Regime, d models.Direction) bool {
	return (d == models.Long && r.HTFTrend == models.TrendDown) ||
		(d == models.Short && r.HTFTrend == models.TrendUp)
}
