package analyze

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalDesk/internal/patterns"
	"github.com/Alias1177/SignalDesk/models"
)

func generateTestBars(n int, tf models.Timeframe, end time.Time, generator func(int) models.Bar) []models.Bar {
	bars := make([]models.Bar, n)
	step := tf.Duration()
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].OpenTime = end.Add(-time.Duration(n-i) * step)
	}
	return bars
}

func flatInput(asOf time.Time) Input {
	flat := func(int) models.Bar {
		return models.Bar{Open: 100, High: 100, Low: 100, Close: 100, Volume: 10}
	}
	bars := make(map[models.Timeframe][]models.Bar)
	for _, tf := range models.Timeframes {
		bars[tf] = generateTestBars(250, tf, asOf, flat)
	}
	return Input{
		Symbol:  "BTCUSDT",
		AsOf:    asOf,
		Bars:    bars,
		Context: models.MarketContext{Funding: make([]float64, 42)},
	}
}

func TestBuildSnapshotFlatSeries(t *testing.T) {
	asOf := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	for _, method := range []string{"zigzag", "fractal"} {
		t.Run(method, func(t *testing.T) {
			p := DefaultParams()
			p.Pivots.Method = patterns.PivotMethod(method)

			snap, err := BuildSnapshot(flatInput(asOf), p)
			require.NoError(t, err)

			assert.Equal(t, 100.0, snap.Price)
			for _, tf := range models.Timeframes {
				set := snap.Indicator(tf)
				assert.InDelta(t, 100.0, set.EMA50, 1e-9, "ema50 %s", tf)
				assert.InDelta(t, 100.0, set.EMA200, 1e-9, "ema200 %s", tf)
				assert.Equal(t, 100.0, set.RSI14, "rsi %s", tf)
				assert.Equal(t, 0.0, set.ATRPct, "atr %s", tf)
			}
			assert.Empty(t, snap.Pivots)
			assert.Nil(t, snap.Support)
			assert.Nil(t, snap.Resistance)
			assert.Equal(t, 0.0, snap.Context.FundingZ)

			require.NotNil(t, snap.SessionVWAP)
			assert.Equal(t, 100.0, snap.SessionVWAP.VWAP)
			assert.Equal(t, 0.0, snap.SessionVWAP.Sigma)
			require.NotNil(t, snap.WeeklyVWAP)

			for _, tf := range profileTimeframes {
				require.NotNil(t, snap.Profiles[tf], "profile %s", tf)
				assert.Equal(t, 100.0, snap.Profiles[tf].PointOfControl)
			}

			assert.True(t, snap.Regime.LTFCompression)
			assert.Equal(t, models.TrendRange, snap.Regime.HTFTrend)
		})
	}
}

func TestBuildSnapshotSession(t *testing.T) {
	asOf := time.Date(2024, 3, 6, 2, 0, 0, 0, time.UTC)
	in := flatInput(asOf)
	in.Bars[models.TF15m] = generateTestBars(40, models.TF15m, asOf, func(i int) models.Bar {
		p := 100 + float64(i)
		return models.Bar{Open: p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 10}
	})

	snap, err := BuildSnapshot(in, DefaultParams())
	require.NoError(t, err)

	// 02:00 session start at 00:00 leaves the last 8 bars, opening at i=32
	assert.Equal(t, 8, snap.SessionBars)
	assert.Equal(t, 132.0, snap.SessionOpen)
	require.NotNil(t, snap.OpeningRange)
	assert.Equal(t, 130.0, snap.OpeningRange.Low)
	assert.Equal(t, 137.0, snap.OpeningRange.High)
	assert.Len(t, snap.Recent15m, 16)
	assert.Equal(t, 140.0, snap.Price)
}

func TestBuildSnapshotPartialData(t *testing.T) {
	asOf := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	in := flatInput(asOf)
	delete(in.Bars, models.TF1h)
	delete(in.Bars, models.TF1d)

	snap, err := BuildSnapshot(in, DefaultParams())
	require.NoError(t, err)
	assert.Nil(t, snap.WeeklyVWAP)
	assert.Nil(t, snap.Pivots)
	assert.NotContains(t, snap.Indicators, models.TF1h)
	assert.Nil(t, snap.Profiles[models.TF1d])
	assert.NotNil(t, snap.Profiles[models.TF4h])
}

func TestBuildSnapshotRequires15m(t *testing.T) {
	in := flatInput(time.Now())
	delete(in.Bars, models.TF15m)

	_, err := BuildSnapshot(in, DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}

func TestBuildSnapshotIgnoresFormingBarForVolume(t *testing.T) {
	asOf := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	in := flatInput(asOf)
	flat := func(int) models.Bar {
		return models.Bar{Open: 100, High: 100, Low: 100, Close: 100, Volume: 10}
	}

	// last closed 4h bar ends one hour before asOf, the next one is still open
	h4 := generateTestBars(10, models.TF4h, asOf.Add(-time.Hour), flat)
	in.Bars[models.TF4h] = append(h4, models.Bar{
		OpenTime: asOf.Add(-time.Hour), Open: 500, High: 500, Low: 500, Close: 500, Volume: 1e5,
	})

	ltf := generateTestBars(30, models.TF15m, asOf.Add(-5*time.Minute), flat)
	in.Bars[models.TF15m] = append(ltf, models.Bar{
		OpenTime: asOf.Add(-5 * time.Minute), Open: 100, High: 101, Low: 99, Close: 101, Volume: 1,
	})

	snap, err := BuildSnapshot(in, DefaultParams())
	require.NoError(t, err)

	require.NotNil(t, snap.Profiles[models.TF4h])
	assert.Equal(t, 100.0, snap.Profiles[models.TF4h].PointOfControl)

	set := snap.Indicator(models.TF15m)
	assert.InDelta(t, 1.0, set.RelVolume, 1e-9)
	assert.Equal(t, models.RelVolumeNormal, set.RelVolumeLevel)
	// price still follows the forming bar
	assert.Equal(t, 101.0, snap.Price)
	assert.Equal(t, 101.0, set.Close)
}
