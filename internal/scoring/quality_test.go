package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/SignalDesk/models"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Price: 100,
		Indicators: map[models.Timeframe]models.IndicatorSet{
			models.TF15m: {EMA50: 99, ATR: 1, ATRPct: 1, ROC10: 2.5, ROC20: 1, RelVolumeLevel: models.RelVolumeHigh},
			models.TF1h:  {EMA50: 98},
			models.TF4h:  {EMA50: 97},
		},
		Profiles: map[models.Timeframe]*models.VolumeProfile{
			models.TF4h: {PointOfControl: 100.3},
		},
		SessionVWAP: &models.VwapBand{VWAP: 99.8},
		Context: models.MarketContext{
			FundingZ:     -1.2,
			Liquidations: &models.Liquidations{LongUSD: 1e6, ShortUSD: 4e6},
		},
		Stress: 1,
	}
}

func factors(a, m, c, s, r int) models.Factors {
	return models.Factors{Alignment: a, Momentum: m, Crowd: c, Structure: s, Risk: r}
}

func TestAlignment(t *testing.T) {
	p := DefaultParams()
	snap := testSnapshot()

	assert.Equal(t, 2, Alignment(snap, models.Long, p))
	assert.Equal(t, 0, Alignment(snap, models.Short, p))
	assert.Equal(t, 2, Alignment(snap, models.Break, p))

	snap.Indicators[models.TF4h] = models.IndicatorSet{EMA50: 103}
	assert.Equal(t, 1, Alignment(snap, models.Long, p))

	// inside the dead zone the timeframe has no sign
	snap.Indicators[models.TF1h] = models.IndicatorSet{EMA50: 99.99}
	assert.Equal(t, 0, Alignment(snap, models.Long, p))
}

func TestMomentum(t *testing.T) {
	snap := testSnapshot()
	assert.Equal(t, 2, Momentum(snap))

	snap.Indicators[models.TF15m] = models.IndicatorSet{ATRPct: 1, ROC20: -1.2}
	assert.Equal(t, 1, Momentum(snap))

	snap.Indicators[models.TF15m] = models.IndicatorSet{ATRPct: 1, ROC10: 0.5}
	assert.Equal(t, 0, Momentum(snap))

	snap.Indicators[models.TF15m] = models.IndicatorSet{ROC10: 5}
	assert.Equal(t, 0, Momentum(snap))
}

func TestCrowd(t *testing.T) {
	p := DefaultParams()
	snap := testSnapshot()

	assert.Equal(t, 2, Crowd(snap, models.Long, p))
	// short gets only the volume condition
	assert.Equal(t, 0, Crowd(snap, models.Short, p))
	assert.Equal(t, 0, Crowd(snap, models.Break, p))

	snap.Context.Liquidations = nil
	assert.Equal(t, 1, Crowd(snap, models.Long, p))
}

func TestStructure(t *testing.T) {
	p := DefaultParams()
	snap := testSnapshot()

	assert.Equal(t, 2, Structure(snap, 0, p))
	assert.Equal(t, 2, Structure(snap, 150, p))

	snap.SessionVWAP = nil
	assert.Equal(t, 1, Structure(snap, 0, p))
	assert.Equal(t, 2, Structure(snap, 100.1, p))

	snap.Profiles = nil
	assert.Equal(t, 0, Structure(snap, 0, p))
}

func TestStructureIgnoresPriceAsReference(t *testing.T) {
	p := DefaultParams()
	snap := &models.Snapshot{
		Price: 100,
		Indicators: map[models.Timeframe]models.IndicatorSet{
			models.TF15m: {ATR: 1},
		},
		Profiles: map[models.Timeframe]*models.VolumeProfile{
			models.TF4h: {PointOfControl: 80},
		},
		SessionVWAP: &models.VwapBand{VWAP: 120},
	}

	tests := []struct {
		name string
		ref  float64
		want int
	}{
		{"price itself", snap.Price, 0},
		{"no reference", 0, 0},
		{"far level", 110, 0},
		{"nearby level", 100.2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Structure(snap, tt.ref, p))
		})
	}
}

func TestRisk(t *testing.T) {
	assert.Equal(t, 2, Risk(0))
	assert.Equal(t, 2, Risk(2))
	assert.Equal(t, 1, Risk(3))
	assert.Equal(t, 1, Risk(4))
	assert.Equal(t, 0, Risk(5))
	assert.Equal(t, 0, Risk(10))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		factors models.Factors
		weights Weights
		want    int
	}{
		{"all max", factors(2, 2, 2, 2, 2), Weights{1, 1, 1, 1, 1}, 10},
		{"all zero", factors(0, 0, 0, 0, 0), Weights{1, 1, 1, 1, 1}, 0},
		{"half", factors(1, 1, 1, 1, 1), Weights{1, 1, 1, 1, 1}, 5},
		{"weighted", factors(2, 0, 0, 0, 0), Weights{3, 1, 0, 0, 1}, 6},
		{"no weights", factors(2, 2, 2, 2, 2), Weights{}, 0},
		{"negative weight ignored", factors(2, 0, 0, 0, 0), Weights{1, -5, 0, 0, 0}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.factors, tt.weights))
		})
	}
}

func TestScoreBoundedAndMonotonic(t *testing.T) {
	weightSets := []Weights{
		{1, 1, 1, 1, 1},
		{2, 1.5, 1, 1, 0.5},
		{0, 0, 3, 0, 1},
		{0.3, 2.2, 0.7, 1.1, 0},
	}

	for _, w := range weightSets {
		for combo := 0; combo < 243; combo++ {
			var vals [5]int
			c := combo
			for i := range vals {
				vals[i] = c % 3
				c /= 3
			}
			f := models.Factors{Alignment: vals[0], Momentum: vals[1], Crowd: vals[2], Structure: vals[3], Risk: vals[4]}
			s := Score(f, w)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 10)

			for i := range vals {
				if vals[i] != 0 {
					continue
				}
				raised := vals
				raised[i] = 2
				g := models.Factors{Alignment: raised[0], Momentum: raised[1], Crowd: raised[2], Structure: raised[3], Risk: raised[4]}
				assert.GreaterOrEqual(t, Score(g, w), s, "weights %v factors %v raise %d", w, vals, i)
			}
		}
	}
}

func TestEvaluateAddsCatalyst(t *testing.T) {
	snap := testSnapshot()
	play := models.Play{Direction: models.Long, RefLevel: 100}

	q := Evaluate(snap, play, Weights{1, 1, 1, 1, 1}, 2, DefaultParams())
	assert.Equal(t, models.Factors{Alignment: 2, Momentum: 2, Crowd: 2, Structure: 2, Risk: 2}, q.Factors)
	assert.Equal(t, 10, q.Value)
	assert.Equal(t, 2, q.Catalyst)

	q = Evaluate(snap, models.Play{Direction: models.Short}, Weights{1, 1, 1, 1, 1}, 5, DefaultParams())
	assert.Equal(t, 2, q.Catalyst)
	assert.LessOrEqual(t, q.Value, 10)
}
