package patterns

import (
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// TrendlineParams bounds the constrained pivot-pair search
type TrendlineParams struct {
	Lookback      int     `yaml:"lookback"`      // bars back from lastIndex a pivot may sit
	MinGapBars    int     `yaml:"min_gap_bars"`  // minimum index distance between the anchors
	MinSlopePct   float64 `yaml:"min_slope_pct"` // |slope| as % of anchor A price per bar
	MaxSlopePct   float64 `yaml:"max_slope_pct"`
	Tolerance     float64 `yaml:"tolerance"` // fraction, 0.005 = 0.5%
	MaxViolations int     `yaml:"max_violations"`

	LastTwoMinGap      int     `yaml:"last_two_min_gap"`
	LastTwoMinDeltaPct float64 `yaml:"last_two_min_delta_pct"`
}

// DefaultTrendlineParams returns the tuning used on daily bars
func DefaultTrendlineParams() TrendlineParams {
	return TrendlineParams{
		Lookback:           60,
		MinGapBars:         5,
		MinSlopePct:        0.02,
		MaxSlopePct:        5.0,
		Tolerance:          0.005,
		MaxViolations:      1,
		LastTwoMinGap:      3,
		LastTwoMinDeltaPct: 1.0,
	}
}

func pivotKindFor(kind models.LineKind) models.PivotKind {
	if kind == models.LineResistance {
		return models.PivotHigh
	}
	return models.PivotLow
}

// candidates returns confirmed pivots of the matching kind inside the lookback window
func candidates(pivots []models.Pivot, kind models.LineKind, lastIndex, lookback int) []models.Pivot {
	var out []models.Pivot
	for _, p := range FilterPivots(pivots, pivotKindFor(kind)) {
		if lookback > 0 && p.Index < lastIndex-lookback {
			continue
		}
		out = append(out, p)
	}
	return out
}

func lineThrough(a, b models.Pivot, kind models.LineKind) models.TrendLine {
	slope := (b.Price - a.Price) / float64(b.Index-a.Index)
	return models.TrendLine{
		Kind:      kind,
		Slope:     slope,
		Intercept: a.Price - slope*float64(a.Index),
		AnchorA:   a,
		AnchorB:   b,
	}
}

// CountViolations counts pivots at or after anchor A that sit on the wrong side of
// the line by more than tol. Support is violated from below, resistance from above.
func CountViolations(line models.TrendLine, pivots []models.Pivot, tol float64) int {
	n := 0
	for _, p := range pivots {
		if p.Index < line.AnchorA.Index {
			continue
		}
		v := line.ValueAt(p.Index)
		if line.Kind == models.LineSupport && p.Price < v*(1-tol) {
			n++
		}
		if line.Kind == models.LineResistance && p.Price > v*(1+tol) {
			n++
		}
	}
	return n
}

// FitTrendLine enumerates pivot pairs and keeps the pair that satisfies the gap, slope
// and containment constraints. Support keeps the steepest rising line, resistance the
// steepest falling one. Returns nil when nothing qualifies.
func FitTrendLine(pivots []models.Pivot, kind models.LineKind, lastIndex int, p TrendlineParams) *models.TrendLine {
	set := candidates(pivots, kind, lastIndex, p.Lookback)
	if len(set) < 2 {
		return nil
	}

	var best *models.TrendLine
	for i := 0; i < len(set)-1; i++ {
		a := set[i]
		if a.Price <= 0 {
			continue
		}
		for j := i + 1; j < len(set); j++ {
			b := set[j]
			if b.Index-a.Index < p.MinGapBars {
				continue
			}

			line := lineThrough(a, b, kind)
			slopePct := math.Abs(line.Slope) / a.Price * 100
			if slopePct < p.MinSlopePct || slopePct > p.MaxSlopePct {
				continue
			}

			line.Violations = CountViolations(line, set, p.Tolerance)
			if line.Violations > p.MaxViolations {
				continue
			}

			if best == nil ||
				(kind == models.LineSupport && line.Slope > best.Slope) ||
				(kind == models.LineResistance && line.Slope < best.Slope) {
				l := line
				best = &l
			}
		}
	}

	if best != nil {
		best.ProjectedToday = best.ValueAt(lastIndex)
	}
	return best
}

// LastTwoPivots connects the most recent pair of same-kind pivots that are far enough
// apart in time and price. It ignores containment; Violations is informational.
func LastTwoPivots(pivots []models.Pivot, kind models.LineKind, lastIndex int, p TrendlineParams) *models.TrendLine {
	set := candidates(pivots, kind, lastIndex, 0)
	for j := len(set) - 1; j > 0; j-- {
		b := set[j]
		for i := j - 1; i >= 0; i-- {
			a := set[i]
			if a.Price <= 0 || b.Index-a.Index < p.LastTwoMinGap {
				continue
			}
			if math.Abs(b.Price-a.Price)/a.Price*100 < p.LastTwoMinDeltaPct {
				continue
			}

			line := lineThrough(a, b, kind)
			line.Violations = CountViolations(line, set, p.Tolerance)
			line.ProjectedToday = line.ValueAt(lastIndex)
			return &line
		}
	}
	return nil
}
