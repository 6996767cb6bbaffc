package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/SignalDesk/internal/analyze"
	"github.com/Alias1177/SignalDesk/internal/gate"
	"github.com/Alias1177/SignalDesk/internal/scoring"
	"github.com/Alias1177/SignalDesk/internal/signals"
	"github.com/Alias1177/SignalDesk/internal/trading/risk"
	"github.com/Alias1177/SignalDesk/models"
)

// Tuning holds the hand-tuned analysis constants
type Tuning struct {
	Analyze   analyze.Params                  `yaml:"analyze"`
	Scoring   scoring.Params                  `yaml:"scoring"`
	Risk      risk.Params                     `yaml:"risk"`
	Gate      gate.Params                     `yaml:"gate"`
	Lifecycle gate.LifecycleParams            `yaml:"lifecycle"`
	Rules     map[string]signals.RuleOverride `yaml:"rules"`
}

// DefaultTuning returns the built-in tuning
func DefaultTuning() Tuning {
	return Tuning{
		Analyze:   analyze.DefaultParams(),
		Scoring:   scoring.DefaultParams(),
		Risk:      risk.DefaultParams(),
		Gate:      gate.DefaultParams(),
		Lifecycle: gate.DefaultLifecycleParams(),
	}
}

// LoadTuning merges a YAML file over the defaults. Unknown keys are rejected.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, &models.ConfigError{Field: "TUNING_FILE", Reason: err.Error()}
	}

	t := DefaultTuning()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, &models.ConfigError{Field: "TUNING_FILE", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if _, err := t.RuleSet(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// RuleSet returns the signal catalogue with the rule overrides applied
func (t Tuning) RuleSet() ([]signals.Rule, error) {
	rules, err := signals.ApplyOverrides(signals.Catalogue(), t.Rules)
	if err != nil {
		return nil, &models.ConfigError{Field: "rules", Reason: err.Error()}
	}
	return rules, nil
}
