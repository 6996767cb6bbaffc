package risk

import (
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// Params controls stop, target and leverage geometry
type Params struct {
	StopATRMultiple float64   `yaml:"stop_atr_multiple"`
	TargetsR        []float64 `yaml:"targets_r"`       // reward multiples of the stop distance
	RiskBudgetPct   float64   `yaml:"risk_budget_pct"` // acceptable move against margin, in %
	MaxLeverage     int       `yaml:"max_leverage"`
}

// DefaultParams returns 1.5 ATR stops, 2R/3R targets and a 10% margin budget
func DefaultParams() Params {
	return Params{
		StopATRMultiple: 1.5,
		TargetsR:        []float64{2, 3},
		RiskBudgetPct:   10,
		MaxLeverage:     20,
	}
}

// ATRStop places a stop a multiple of ATR beyond entry against the direction
func ATRStop(entry, atr float64, d models.Direction, p Params) float64 {
	dist := atr * p.StopATRMultiple
	if d == models.Short {
		return entry + dist
	}
	return entry - dist
}

// Targets projects reward multiples of the stop distance from entry
func Targets(entry, stop float64, d models.Direction, p Params) []float64 {
	risk := math.Abs(entry - stop)
	sign := float64(d.Sign())
	if risk == 0 || sign == 0 {
		return nil
	}

	out := make([]float64, 0, len(p.TargetsR))
	for _, r := range p.TargetsR {
		out = append(out, entry+sign*r*risk)
	}
	return out
}

// BreakTargets returns one first target per side of a range, with the stop at mid
func BreakTargets(box models.Range, p Params) []float64 {
	risk := box.Height() / 2
	if risk <= 0 || len(p.TargetsR) == 0 {
		return nil
	}
	r := p.TargetsR[0]
	return []float64{box.High + r*risk, box.Low - r*risk}
}

// Leverage sizes so that a stop-out costs at most RiskBudgetPct of margin.
// The lower bound is half the upper, never below 1x.
func Leverage(entry, stop float64, p Params) models.LeverageRange {
	if entry <= 0 || p.RiskBudgetPct <= 0 {
		return models.LeverageRange{Min: 1, Max: 1}
	}

	stopPct := math.Abs(entry-stop) / entry * 100
	maxLev := p.MaxLeverage
	if stopPct > 0 {
		maxLev = int(math.Floor(p.RiskBudgetPct / stopPct))
	}
	if maxLev > p.MaxLeverage {
		maxLev = p.MaxLeverage
	}
	if maxLev < 1 {
		maxLev = 1
	}

	minLev := maxLev / 2
	if minLev < 1 {
		minLev = 1
	}
	return models.LeverageRange{Min: minLev, Max: maxLev}
}
