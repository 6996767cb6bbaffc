package calculate

import (
	"github.com/Alias1177/SignalDesk/models"
)

// Periods are the indicator constants. They are the same across timeframes.
type Periods struct {
	EMAFast    int `yaml:"ema_fast"`
	EMASlow    int `yaml:"ema_slow"`
	RSI        int `yaml:"rsi"`
	ATR        int `yaml:"atr"`
	ADX        int `yaml:"adx"`
	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`
}

// DefaultPeriods returns the standard indicator periods
func DefaultPeriods() Periods {
	return Periods{
		EMAFast:    50,
		EMASlow:    200,
		RSI:        14,
		ATR:        14,
		ADX:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// CalculateIndicatorSet computes all indicators for one timeframe
func CalculateIndicatorSet(bars []models.Bar, p Periods) models.IndicatorSet {
	if len(bars) == 0 {
		return models.IndicatorSet{RelVolumeLevel: models.RelVolumeNormal}
	}

	closes := Closes(bars)
	highs := Highs(bars)
	lows := Lows(bars)
	lastClose := closes[len(closes)-1]

	atr := ATR(highs, lows, closes, p.ATR)
	relVol, relLevel := BarRelativeVolume(bars)

	set := models.IndicatorSet{
		Close:          lastClose,
		EMA50:          EMA(closes, p.EMAFast),
		EMA200:         EMA(closes, p.EMASlow),
		RSI14:          RSI(closes, p.RSI),
		ATR:            atr,
		ATRPct:         ATRPct(atr, lastClose),
		MACDHist:       MACDHistogram(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		ROC10:          ROC(closes, 10),
		ROC20:          ROC(closes, 20),
		RelVolume:      relVol,
		RelVolumeLevel: relLevel,
	}

	if len(bars) >= p.ADX*2 {
		adx := ADX(highs, lows, closes, p.ADX)
		set.ADX14 = &adx
	}

	return set
}
