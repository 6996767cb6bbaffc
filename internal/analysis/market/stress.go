package market

import (
	"fmt"
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// StressParams configures the composite stress index
type StressParams struct {
	SpikeATRMultiple    float64 `yaml:"spike_atr_multiple"`
	LiquidationNotional float64 `yaml:"liquidation_notional"`
}

// DefaultStressParams returns the stock thresholds
func DefaultStressParams() StressParams {
	return StressParams{
		SpikeATRMultiple:    3.0,
		LiquidationNotional: 50_000_000,
	}
}

// StressIndex scores market stress 0..10 from 15m volatility, funding extremes,
// open interest swings, sentiment extremes, a last-bar price spike and liquidation
// volume. The flags describe which components fired.
func StressIndex(ltf models.IndicatorSet, last *models.Bar, mctx models.MarketContext, p StressParams) (int, []string) {
	score := 0
	var flags []string

	switch {
	case ltf.ATRPct >= 1.5:
		score += 2
		flags = append(flags, fmt.Sprintf("ATR_%.2f%%", ltf.ATRPct))
	case ltf.ATRPct >= 1.0:
		score++
		flags = append(flags, fmt.Sprintf("ATR_%.2f%%", ltf.ATRPct))
	}

	fz := math.Abs(mctx.FundingZ)
	switch {
	case fz >= 2.5:
		score += 2
		flags = append(flags, "FUNDING_EXTREME")
	case fz >= 1.5:
		score++
		flags = append(flags, "FUNDING_STRETCHED")
	}

	if oi := mctx.OpenInterest; oi != nil {
		ch := math.Abs(oi.Change24hPct)
		switch {
		case ch >= 10:
			score += 2
			flags = append(flags, "OI_SWING")
		case ch >= 5:
			score++
			flags = append(flags, "OI_SHIFT")
		}
	}

	if s := mctx.Sentiment; s != nil {
		switch {
		case s.Value <= 20 || s.Value >= 80:
			score += 2
			flags = append(flags, "SENTIMENT_EXTREME")
		case s.Value <= 30 || s.Value >= 70:
			score++
			flags = append(flags, "SENTIMENT_HOT")
		}
	}

	if last != nil && ltf.ATR > 0 {
		if rng := last.High - last.Low; rng > p.SpikeATRMultiple*ltf.ATR {
			score++
			flags = append(flags, fmt.Sprintf("PRICE_SPIKE_%.1fx", rng/ltf.ATR))
		}
	}

	if l := mctx.Liquidations; l != nil && p.LiquidationNotional > 0 && l.Total() >= p.LiquidationNotional {
		score++
		flags = append(flags, "LIQUIDATION_CASCADE")
	}

	if score > 10 {
		score = 10
	}
	return score, flags
}
