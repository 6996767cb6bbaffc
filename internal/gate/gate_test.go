package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/SignalDesk/models"
)

func scoredPlay(d models.Direction, value, base int) models.Play {
	return models.Play{
		ID:        "test_rule",
		Direction: d,
		RefLevel:  100,
		Quality:   models.QualityScore{Value: value, BaseGate: base},
	}
}

func TestApply(t *testing.T) {
	p := DefaultParams()
	strongUp := models.Regime{HTFTrend: models.TrendUp, ADXStrong: true, LTFCompression: true}
	weakUp := models.Regime{HTFTrend: models.TrendUp, LTFCompression: true}

	tests := []struct {
		name      string
		play      models.Play
		regime    models.Regime
		traits    Traits
		gate      int
		denied    bool
		belowGate bool
	}{
		{"aligned play keeps base gate", scoredPlay(models.Long, 6, 6), weakUp, Traits{}, 6, false, false},
		{"against weak trend", scoredPlay(models.Short, 6, 6), weakUp, Traits{}, 7, false, true},
		{"trend rule against strong trend", scoredPlay(models.Short, 9, 6), strongUp, Traits{}, 6, true, false},
		{"fade against strong trend", scoredPlay(models.Short, 8, 6), strongUp, Traits{CounterTrend: true}, 8, false, false},
		{"breakout outside compression", scoredPlay(models.Long, 6, 6), models.Regime{HTFTrend: models.TrendRange, LTFExpansion: true}, Traits{Breakout: true}, 7, false, true},
		{"break without compression or expansion", scoredPlay(models.Break, 9, 5), models.Regime{HTFTrend: models.TrendRange}, Traits{Breakout: true}, 6, true, false},
		{"break in compression", scoredPlay(models.Break, 5, 5), models.Regime{HTFTrend: models.TrendDown, LTFCompression: true}, Traits{Breakout: true}, 5, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			play := tt.play
			Apply(&play, tt.regime, tt.traits, p)
			assert.Equal(t, tt.gate, play.Quality.Gate)
			assert.Equal(t, tt.denied, play.Quality.Denied)
			assert.Equal(t, tt.belowGate, play.Quality.BelowGate)
			assert.Equal(t, !tt.denied && !tt.belowGate, play.Quality.Sendable())
			assert.NotEmpty(t, play.Quality.GateDetail)
		})
	}
}

func TestApplyDetail(t *testing.T) {
	play := scoredPlay(models.Short, 6, 6)
	Apply(&play, models.Regime{HTFTrend: models.TrendUp}, Traits{Breakout: true}, DefaultParams())
	assert.Equal(t, "gate 6->8: against UP trend +1; breakout outside compression +1", play.Quality.GateDetail)
}
