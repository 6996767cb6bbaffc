package scoring

import (
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// Weights scale the five factors in Factors.Values order
type Weights [5]float64

// Params holds the factor thresholds
type Params struct {
	DeadZonePct          float64 `yaml:"dead_zone_pct"`          // |price-EMA50|/EMA50 in % treated as no sign
	FundingZ             float64 `yaml:"funding_z"`              // crowd funding bias threshold
	LiquidationImbalance float64 `yaml:"liquidation_imbalance"`  // favoured side must exceed the other by this ratio
	StructureATRMultiple float64 `yaml:"structure_atr_multiple"` // proximity tolerance in 15m ATRs
}

// DefaultParams returns the stock factor thresholds
func DefaultParams() Params {
	return Params{
		DeadZonePct:          0.05,
		FundingZ:             1.0,
		LiquidationImbalance: 1.5,
		StructureATRMultiple: 0.5,
	}
}

var alignmentTimeframes = []models.Timeframe{models.TF15m, models.TF1h, models.TF4h}

// Alignment counts timeframes whose price-EMA50 sign agrees with the play.
// Break plays take whichever side has more agreement.
func Alignment(snap *models.Snapshot, d models.Direction, p Params) int {
	up, down := 0, 0
	for _, tf := range alignmentTimeframes {
		ema := snap.Indicator(tf).EMA50
		if ema <= 0 {
			continue
		}
		diff := (snap.Price - ema) / ema * 100
		if math.Abs(diff) < p.DeadZonePct {
			continue
		}
		if diff > 0 {
			up++
		} else {
			down++
		}
	}

	agree := 0
	switch d {
	case models.Long:
		agree = up
	case models.Short:
		agree = down
	default:
		agree = max(up, down)
	}

	switch {
	case agree >= 3:
		return 2
	case agree == 2:
		return 1
	}
	return 0
}

// Momentum compares the stronger 15m rate of change against 15m ATR%
func Momentum(snap *models.Snapshot) int {
	ltf := snap.Indicator(models.TF15m)
	if ltf.ATRPct <= 0 {
		return 0
	}

	m := math.Max(math.Abs(ltf.ROC10), math.Abs(ltf.ROC20))
	switch {
	case m >= 2*ltf.ATRPct:
		return 2
	case m >= ltf.ATRPct:
		return 1
	}
	return 0
}

// Crowd scores positioning that favours the play: high relative volume, funding
// leaning against the play and liquidations hitting the other side. Always 0 for Break.
func Crowd(snap *models.Snapshot, d models.Direction, p Params) int {
	if d != models.Long && d != models.Short {
		return 0
	}

	hits := 0
	if snap.Indicator(models.TF15m).RelVolumeLevel.IsHigh() {
		hits++
	}

	z := snap.Context.FundingZ
	if (d == models.Long && z <= -p.FundingZ) || (d == models.Short && z >= p.FundingZ) {
		hits++
	}

	if l := snap.Context.Liquidations; l != nil {
		if (d == models.Long && l.ShortUSD > p.LiquidationImbalance*l.LongUSD) ||
			(d == models.Short && l.LongUSD > p.LiquidationImbalance*l.ShortUSD) {
			hits++
		}
	}

	switch {
	case hits >= 3:
		return 2
	case hits == 2:
		return 1
	}
	return 0
}

// Structure counts session VWAP, 4h point of control and the play's own reference
// level lying within an ATR-scaled distance of price. A reference equal to price
// is not a level and is ignored.
func Structure(snap *models.Snapshot, refLevel float64, p Params) int {
	tol := p.StructureATRMultiple * snap.Indicator(models.TF15m).ATR

	var levels []float64
	if snap.SessionVWAP != nil {
		levels = append(levels, snap.SessionVWAP.VWAP)
	}
	if prof := snap.Profiles[models.TF4h]; prof != nil {
		levels = append(levels, prof.PointOfControl)
	}
	if refLevel > 0 && refLevel != snap.Price {
		levels = append(levels, refLevel)
	}

	hits := 0
	for _, lvl := range levels {
		if math.Abs(snap.Price-lvl) <= tol {
			hits++
		}
	}

	switch {
	case hits >= 2:
		return 2
	case hits == 1:
		return 1
	}
	return 0
}

// Risk inverts the stress index
func Risk(stress int) int {
	switch {
	case stress < 3:
		return 2
	case stress < 5:
		return 1
	}
	return 0
}

// ComputeFactors evaluates all five factors for a play
func ComputeFactors(snap *models.Snapshot, play models.Play, p Params) models.Factors {
	return models.Factors{
		Alignment: Alignment(snap, play.Direction, p),
		Momentum:  Momentum(snap),
		Crowd:     Crowd(snap, play.Direction, p),
		Structure: Structure(snap, play.RefLevel, p),
		Risk:      Risk(snap.Stress),
	}
}

// Score normalises the weighted factors to 0..10. Negative weights count as zero
// and an all-zero weight vector scores 0.
func Score(f models.Factors, w Weights) int {
	var num, den float64
	for i, v := range f.Values() {
		wi := math.Max(w[i], 0)
		num += float64(v) * wi
		den += 2 * wi
	}
	if den == 0 {
		return 0
	}
	return clamp(int(math.Round(10*num/den)), 0, 10)
}

// Evaluate builds the quality score of a play, catalyst bonus included
func Evaluate(snap *models.Snapshot, play models.Play, w Weights, catalyst int, p Params) models.QualityScore {
	f := ComputeFactors(snap, play, p)
	catalyst = clamp(catalyst, 0, 2)
	return models.QualityScore{
		Value:    clamp(Score(f, w)+catalyst, 0, 10),
		Factors:  f,
		Catalyst: catalyst,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
