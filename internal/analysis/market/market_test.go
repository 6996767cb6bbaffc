package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/SignalDesk/models"
)

func adx(v float64) *float64 { return &v }

func TestClassifyRegimeTrend(t *testing.T) {
	p := DefaultRegimeParams()
	band := &models.VwapBand{BandWidthPct: 1.0}

	tests := []struct {
		name   string
		daily  models.IndicatorSet
		h4     models.IndicatorSet
		price  float64
		trend  models.Trend
		strong bool
	}{
		{
			name:  "golden cross above 4h ema",
			daily: models.IndicatorSet{EMA50: 110, EMA200: 100},
			h4:    models.IndicatorSet{EMA50: 105, ADX14: adx(15)},
			price: 108,
			trend: models.TrendUp,
		},
		{
			name:   "strong adx overrides daily cross",
			daily:  models.IndicatorSet{EMA50: 90, EMA200: 100},
			h4:     models.IndicatorSet{EMA50: 105, ADX14: adx(30)},
			price:  108,
			trend:  models.TrendUp,
			strong: true,
		},
		{
			name:   "down mirror",
			daily:  models.IndicatorSet{EMA50: 90, EMA200: 100},
			h4:     models.IndicatorSet{EMA50: 95, ADX14: adx(26)},
			price:  92,
			trend:  models.TrendDown,
			strong: true,
		},
		{
			name:  "conflict is range",
			daily: models.IndicatorSet{EMA50: 110, EMA200: 100},
			h4:    models.IndicatorSet{EMA50: 105, ADX14: adx(10)},
			price: 101,
			trend: models.TrendRange,
		},
		{
			name:  "missing history is range",
			daily: models.IndicatorSet{},
			h4:    models.IndicatorSet{},
			price: 101,
			trend: models.TrendRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ClassifyRegime(tt.daily, tt.h4, models.IndicatorSet{}, tt.price, band, p)
			assert.Equal(t, tt.trend, r.HTFTrend)
			assert.Equal(t, tt.strong, r.ADXStrong)
		})
	}
}

func TestClassifyRegimeCompression(t *testing.T) {
	p := DefaultRegimeParams()
	quiet := models.IndicatorSet{ATRPct: 0.5, ROC10: 0.1, RelVolumeLevel: models.RelVolumeNormal}

	t.Run("tight band and low atr", func(t *testing.T) {
		r := ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{}, quiet, 100, &models.VwapBand{BandWidthPct: 1.5}, p)
		assert.True(t, r.LTFCompression)
		assert.False(t, r.LTFExpansion)
	})

	t.Run("high relative volume breaks compression", func(t *testing.T) {
		ltf := quiet
		ltf.RelVolumeLevel = models.RelVolumeHigh
		r := ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{}, ltf, 100, &models.VwapBand{BandWidthPct: 1.5}, p)
		assert.False(t, r.LTFCompression)
		assert.True(t, r.LTFExpansion)
	})

	t.Run("momentum beyond atr expands", func(t *testing.T) {
		ltf := models.IndicatorSet{ATRPct: 1.2, ROC10: -1.5}
		r := ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{}, ltf, 100, &models.VwapBand{BandWidthPct: 3}, p)
		assert.False(t, r.LTFCompression)
		assert.True(t, r.LTFExpansion)
	})

	t.Run("no band no compression", func(t *testing.T) {
		r := ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{}, quiet, 100, nil, p)
		assert.False(t, r.LTFCompression)
		assert.False(t, r.LTFExpansion)
	})
}

func TestOpposes(t *testing.T) {
	up := models.Regime{HTFTrend: models.TrendUp}
	down := models.Regime{HTFTrend: models.TrendDown}
	flat := models.Regime{HTFTrend: models.TrendRange}

	assert.True(t, Opposes(up, models.Short))
	assert.True(t, Opposes(down, models.Long))
	assert.False(t, Opposes(up, models.Long))
	assert.False(t, Opposes(up, models.Break))
	assert.False(t, Opposes(flat, models.Short))
}

func TestStressIndex(t *testing.T) {
	p := DefaultStressParams()

	t.Run("calm market", func(t *testing.T) {
		score, flags := StressIndex(models.IndicatorSet{ATRPct: 0.3, ATR: 100}, &models.Bar{High: 101, Low: 100}, models.MarketContext{}, p)
		assert.Equal(t, 0, score)
		assert.Empty(t, flags)
	})

	t.Run("every component fires", func(t *testing.T) {
		mctx := models.MarketContext{
			FundingZ:     -3,
			OpenInterest: &models.OpenInterest{Change24hPct: 12},
			Sentiment:    &models.Sentiment{Value: 10},
			Liquidations: &models.Liquidations{LongUSD: 40e6, ShortUSD: 20e6},
		}
		ltf := models.IndicatorSet{ATRPct: 2, ATR: 100}
		score, flags := StressIndex(ltf, &models.Bar{High: 1400, Low: 1000}, mctx, p)
		assert.Equal(t, 10, score)
		assert.Len(t, flags, 6)
	})

	t.Run("moderate tiers", func(t *testing.T) {
		mctx := models.MarketContext{
			FundingZ:     1.6,
			OpenInterest: &models.OpenInterest{Change24hPct: -6},
			Sentiment:    &models.Sentiment{Value: 72},
		}
		score, _ := StressIndex(models.IndicatorSet{ATRPct: 1.1}, nil, mctx, p)
		assert.Equal(t, 4, score)
	})
}

func TestClassifyRegimeMissingADX(t *testing.T) {
	p := DefaultRegimeParams()
	p.ADXStrong = 0

	// a zero threshold still needs a computed ADX
	r := ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{EMA50: 105}, models.IndicatorSet{}, 110, nil, p)
	assert.False(t, r.ADXStrong)

	r = ClassifyRegime(models.IndicatorSet{}, models.IndicatorSet{EMA50: 105, ADX14: adx(0)}, models.IndicatorSet{}, 110, nil, p)
	assert.True(t, r.ADXStrong)
	assert.Equal(t, models.TrendUp, r.HTFTrend)
}
