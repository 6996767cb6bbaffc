package gate

import (
	"fmt"
	"strings"

	"github.com/Alias1177/SignalDesk/internal/analysis/market"
	"github.com/Alias1177/SignalDesk/models"
)

// Params are the regime gate deltas
type Params struct {
	OpposingTrend      int  `yaml:"opposing_trend"`       // added when a play fights the htf trend
	StrongCounterTrend int  `yaml:"strong_counter_trend"` // added to fades against a strong trend
	BreakoutNoSqueeze  int  `yaml:"breakout_no_squeeze"`  // added to breakout rules outside compression
	DenyTrendVsStrong  bool `yaml:"deny_trend_vs_strong"` // trend rules against a strong trend are denied
}

// DefaultParams returns the stock gate deltas
func DefaultParams() Params {
	return Params{
		OpposingTrend:      1,
		StrongCounterTrend: 2,
		BreakoutNoSqueeze:  1,
		DenyTrendVsStrong:  true,
	}
}

// Traits are the rule properties the gate depends on
type Traits struct {
	Breakout     bool
	CounterTrend bool
}

// Apply raises the play's base gate or denies it for the current regime, then marks
// it below gate. The play is never dropped.
func Apply(play *models.Play, regime models.Regime, traits Traits, p Params) {
	q := &play.Quality
	gate := q.BaseGate
	denied := false
	var notes []string

	if market.Opposes(regime, play.Direction) {
		switch {
		case regime.ADXStrong && traits.CounterTrend:
			gate += p.StrongCounterTrend
			notes = append(notes, fmt.Sprintf("fade vs strong %s +%d", regime.HTFTrend, p.StrongCounterTrend))
		case regime.ADXStrong && p.DenyTrendVsStrong:
			denied = true
			notes = append(notes, fmt.Sprintf("denied: against strong %s trend", regime.HTFTrend))
		default:
			gate += p.OpposingTrend
			notes = append(notes, fmt.Sprintf("against %s trend +%d", regime.HTFTrend, p.OpposingTrend))
		}
	}

	if traits.Breakout && !regime.LTFCompression {
		gate += p.BreakoutNoSqueeze
		notes = append(notes, fmt.Sprintf("breakout outside compression +%d", p.BreakoutNoSqueeze))
	}

	if play.Direction == models.Break && !regime.LTFCompression && !regime.LTFExpansion {
		denied = true
		notes = append(notes, "denied: break without compression or expansion")
	}

	q.Gate = gate
	q.Denied = denied
	q.BelowGate = q.Value < gate
	if len(notes) == 0 {
		q.GateDetail = fmt.Sprintf("base gate %d", gate)
		return
	}
	q.GateDetail = fmt.Sprintf("gate %d->%d: %s", q.BaseGate, gate, strings.Join(notes, "; "))
}
