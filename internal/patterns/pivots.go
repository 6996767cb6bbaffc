package patterns

import (
	"github.com/Alias1177/SignalDesk/models"
)

// PivotMethod selects the swing detection algorithm
type PivotMethod string

const (
	MethodFractal PivotMethod = "fractal"
	MethodZigZag  PivotMethod = "zigzag"
)

// PivotParams configures DetectPivots
type PivotParams struct {
	Method        PivotMethod `yaml:"method"`
	FractalWindow int         `yaml:"fractal_window"` // bars on each side
	ZigZagPct     float64     `yaml:"zigzag_pct"`     // reversal fraction, 0.06 = 6%
}

// DetectPivots reduces daily bars to swing extremes with the selected method
func DetectPivots(bars []models.Bar, p PivotParams) []models.Pivot {
	if p.Method == MethodFractal {
		return FractalPivots(bars, p.FractalWindow)
	}
	return ZigZagPivots(bars, p.ZigZagPct)
}

// FractalPivots marks bar i as a High pivot when high[i] is the max of high[i-n..i+n]
// and strictly above every high to its left in that window; lows mirror this.
// The last n bars can never confirm.
func FractalPivots(bars []models.Bar, n int) []models.Pivot {
	if n <= 0 || len(bars) < 2*n+1 {
		return nil
	}

	var out []models.Pivot
	for i := n; i < len(bars)-n; i++ {
		hi, lo := true, true
		for j := i - n; j <= i+n && (hi || lo); j++ {
			if j == i {
				continue
			}
			if j < i {
				if bars[j].High >= bars[i].High {
					hi = false
				}
				if bars[j].Low <= bars[i].Low {
					lo = false
				}
				continue
			}
			if bars[j].High > bars[i].High {
				hi = false
			}
			if bars[j].Low < bars[i].Low {
				lo = false
			}
		}

		if hi {
			out = append(out, models.Pivot{Index: i, Time: bars[i].OpenTime, Price: bars[i].High, Kind: models.PivotHigh, Confirmed: true})
		}
		if lo {
			out = append(out, models.Pivot{Index: i, Time: bars[i].OpenTime, Price: bars[i].Low, Kind: models.PivotLow, Confirmed: true})
		}
	}

	return out
}

// ZigZagPivots walks daily closes tracking the running extreme of the current leg.
// A reversal of at least pct from that extreme confirms it and flips the leg. The open
// leg's extreme is always appended unconfirmed once a direction exists.
func ZigZagPivots(bars []models.Bar, pct float64) []models.Pivot {
	if len(bars) < 2 || pct <= 0 {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	type swing struct {
		index     int
		confirmed bool
	}
	var swings []swing

	dir := 0
	maxIdx, minIdx, extIdx := 0, 0, 0
	for i := 1; i < len(closes); i++ {
		c := closes[i]
		switch dir {
		case 0:
			if c > closes[maxIdx] {
				maxIdx = i
			}
			if c < closes[minIdx] {
				minIdx = i
			}
			if c >= closes[minIdx]*(1+pct) && closes[minIdx] > 0 {
				swings = append(swings, swing{index: minIdx, confirmed: true})
				dir, extIdx = 1, i
			} else if c <= closes[maxIdx]*(1-pct) {
				swings = append(swings, swing{index: maxIdx, confirmed: true})
				dir, extIdx = -1, i
			}
		case 1:
			if c > closes[extIdx] {
				extIdx = i
			} else if c <= closes[extIdx]*(1-pct) {
				swings = append(swings, swing{index: extIdx, confirmed: true})
				dir, extIdx = -1, i
			}
		case -1:
			if c < closes[extIdx] {
				extIdx = i
			} else if c >= closes[extIdx]*(1+pct) {
				swings = append(swings, swing{index: extIdx, confirmed: true})
				dir, extIdx = 1, i
			}
		}
	}

	if dir == 0 {
		return nil
	}
	swings = append(swings, swing{index: extIdx})

	out := make([]models.Pivot, len(swings))
	for k, s := range swings {
		out[k] = models.Pivot{
			Index:     s.index,
			Time:      bars[s.index].OpenTime,
			Price:     closes[s.index],
			Confirmed: s.confirmed,
		}
	}
	classifyPivots(out)
	return out
}

// classifyPivots types each pivot against its neighbours in the pivot sequence
func classifyPivots(pivots []models.Pivot) {
	for i := range pivots {
		p := pivots[i].Price
		higher, lower := true, true
		if i > 0 {
			prev := pivots[i-1].Price
			higher = higher && p >= prev
			lower = lower && p <= prev
		}
		if i < len(pivots)-1 {
			next := pivots[i+1].Price
			higher = higher && p >= next
			lower = lower && p <= next
		}

		switch {
		case higher:
			pivots[i].Kind = models.PivotHigh
		case lower:
			pivots[i].Kind = models.PivotLow
		}
	}
}

// FilterPivots returns confirmed pivots of one kind
func FilterPivots(pivots []models.Pivot, kind models.PivotKind) []models.Pivot {
	var out []models.Pivot
	for _, p := range pivots {
		if p.Kind == kind && p.Confirmed {
			out = append(out, p)
		}
	}
	return out
}
