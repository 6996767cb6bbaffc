package signals

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/internal/scoring"
	"github.com/Alias1177/SignalDesk/internal/trading/risk"
	"github.com/Alias1177/SignalDesk/models"
)

// Rule is one entry of the signal catalogue. Evaluate returns either a play with
// direction, entry zone, stop and reference level, or an abstain reason.
type Rule struct {
	ID           string
	Name         string
	Gate         int
	Weights      scoring.Weights
	Breakout     bool // gated harder outside compression
	CounterTrend bool // fades are penalised, not denied, against a strong trend
	Evaluate     func(snap *models.Snapshot) (*models.Play, string)
	Catalyst     func(snap *models.Snapshot, play models.Play) int
}

// Candidate is the outcome of one rule for one snapshot
type Candidate struct {
	Rule   Rule
	Play   *models.Play
	Reason string
}

// Detected reports whether the rule produced a play
func (c Candidate) Detected() bool {
	return c.Play != nil
}

// RuleOverride replaces the gate or weights of a catalogue rule
type RuleOverride struct {
	Gate     *int             `yaml:"gate"`
	Weights  *scoring.Weights `yaml:"weights"`
	Disabled bool             `yaml:"disabled"`
}

// ApplyOverrides returns a copy of rules with overrides applied in catalogue order
func ApplyOverrides(rules []Rule, overrides map[string]RuleOverride) ([]Rule, error) {
	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.ID] = true
	}
	for id := range overrides {
		if !known[id] {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		o, ok := overrides[r.ID]
		if !ok {
			out = append(out, r)
			continue
		}
		if o.Disabled {
			continue
		}
		if o.Gate != nil {
			if *o.Gate < 0 || *o.Gate > 10 {
				return nil, fmt.Errorf("rule %s: gate %d outside 0..10", r.ID, *o.Gate)
			}
			r.Gate = *o.Gate
		}
		if o.Weights != nil {
			for i, w := range o.Weights {
				if w < 0 {
					return nil, fmt.Errorf("rule %s: negative weight at %d", r.ID, i)
				}
			}
			r.Weights = *o.Weights
		}
		out = append(out, r)
	}
	return out, nil
}

// Detector evaluates the rule catalogue against a snapshot
type Detector struct {
	rules   []Rule
	risk    risk.Params
	scoring scoring.Params
	logger  zerolog.Logger
}

// NewDetector creates a detector over an ordered rule set
func NewDetector(rules []Rule, riskParams risk.Params, scoringParams scoring.Params) *Detector {
	return &Detector{
		rules:   rules,
		risk:    riskParams,
		scoring: scoringParams,
		logger:  log.With().Str("component", "signals").Logger(),
	}
}

// Detect runs every rule independently. Every rule yields a candidate, so abstentions
// stay visible to the caller.
func (d *Detector) Detect(snap *models.Snapshot) []Candidate {
	out := make([]Candidate, 0, len(d.rules))
	for _, r := range d.rules {
		play, reason := r.Evaluate(snap)
		if play == nil {
			d.logger.Debug().Str("rule", r.ID).Str("reason", reason).Msg("Rule abstained")
			out = append(out, Candidate{Rule: r, Reason: reason})
			continue
		}

		play.ID = r.ID
		play.Name = r.Name
		d.fillGeometry(play)

		catalyst := 0
		if r.Catalyst != nil {
			catalyst = r.Catalyst(snap, *play)
		}
		play.Quality = scoring.Evaluate(snap, *play, r.Weights, catalyst, d.scoring)
		play.Quality.BaseGate = r.Gate

		d.logger.Debug().
			Str("rule", r.ID).
			Str("direction", string(play.Direction)).
			Int("quality", play.Quality.Value).
			Msg("Rule detected play")
		out = append(out, Candidate{Rule: r, Play: play, Reason: reason})
	}
	return out
}

func (d *Detector) fillGeometry(play *models.Play) {
	if play.Direction == models.Break {
		play.Targets = risk.BreakTargets(play.EntryZone, d.risk)
		play.LeverageRange = risk.Leverage(play.EntryZone.High, play.Stop, d.risk)
		return
	}

	entry := play.EntryZone.Mid()
	play.Targets = risk.Targets(entry, play.Stop, play.Direction, d.risk)
	play.LeverageRange = risk.Leverage(entry, play.Stop, d.risk)
}
