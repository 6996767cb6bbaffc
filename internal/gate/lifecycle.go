package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/models"
)

// LifecycleParams controls de-duplication
type LifecycleParams struct {
	MuteWindow     time.Duration `yaml:"mute_window"`
	KeyTTL         time.Duration `yaml:"key_ttl"`
	ATier          int           `yaml:"a_tier"`
	LevelRoundStep float64       `yaml:"level_round_step"`
	StateKey       string        `yaml:"state_key"`
}

// DefaultLifecycleParams returns a 30m mute, 20m key TTL and A-tier 8
func DefaultLifecycleParams() LifecycleParams {
	return LifecycleParams{
		MuteWindow:     30 * time.Minute,
		KeyTTL:         20 * time.Minute,
		ATier:          8,
		LevelRoundStep: 50,
		StateKey:       "state",
	}
}

// Suppression reasons
const (
	ReasonDenied    = "denied"
	ReasonBelowGate = "below gate"
	ReasonMuted     = "global mute"
	ReasonDuplicate = "duplicate in tick"
	ReasonKeyTTL    = "key ttl"
)

// Decision is the emission outcome of one play
type Decision struct {
	Play      models.Play
	Key       string
	Emit      bool   // passed every filter and was handed to the notifier
	Delivered bool   // notifier accepted it
	Reason    string // why it was not emitted
	Err       error  // notifier failure
}

type dedupState struct {
	GlobalLastEmit time.Time            `json:"global_last_emit"`
	PerKey         map[string]time.Time `json:"per_key"`
}

// Manager applies the mute window and per-key TTL and owns the de-dup state
type Manager struct {
	store    models.KVStore
	notifier models.Notifier
	params   LifecycleParams
	now      func() time.Time
	logger   zerolog.Logger
}

// NewManager creates a lifecycle manager over a KV store and a notifier
func NewManager(store models.KVStore, notifier models.Notifier, p LifecycleParams) *Manager {
	return &Manager{
		store:    store,
		notifier: notifier,
		params:   p,
		now:      time.Now,
		logger:   log.With().Str("component", "lifecycle").Logger(),
	}
}

// DedupKey derives the stable key of a play from rule id, direction and rounded level
func DedupKey(play models.Play, step float64) string {
	lvl := play.RefLevel
	if step > 0 {
		lvl = math.Round(lvl/step) * step
	}
	return fmt.Sprintf("%s|%s|%s", play.ID, play.Direction, strconv.FormatFloat(lvl, 'f', -1, 64))
}

// Process decides which plays are emitted, delivers them and commits the state.
// State is read once and written once; keys only advance for delivered plays.
func (m *Manager) Process(ctx context.Context, plays []models.Play, snap *models.Snapshot) ([]Decision, error) {
	st, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	aTier := false
	for _, p := range plays {
		if p.Quality.Sendable() && p.Quality.Value >= m.params.ATier {
			aTier = true
			break
		}
	}
	muted := !st.GlobalLastEmit.IsZero() && now.Sub(st.GlobalLastEmit) < m.params.MuteWindow && !aTier

	decisions := make([]Decision, len(plays))
	seen := make(map[string]bool)
	for i, p := range plays {
		d := Decision{Play: p, Key: DedupKey(p, m.params.LevelRoundStep)}
		switch {
		case p.Quality.Denied:
			d.Reason = ReasonDenied
		case p.Quality.BelowGate:
			d.Reason = ReasonBelowGate
		case seen[d.Key]:
			d.Reason = ReasonDuplicate
		case muted:
			d.Reason = ReasonMuted
		default:
			if last, ok := st.PerKey[d.Key]; ok && now.Sub(last) < m.params.KeyTTL {
				d.Reason = ReasonKeyTTL
			} else {
				d.Emit = true
			}
		}
		if p.Quality.Sendable() {
			seen[d.Key] = true
		}
		decisions[i] = d
	}

	delivered := 0
	for i := range decisions {
		d := &decisions[i]
		if !d.Emit {
			m.logger.Debug().Str("rule", d.Play.ID).Str("key", d.Key).Str("reason", d.Reason).Msg("Play suppressed")
			continue
		}
		if err := m.notifier.Send(ctx, d.Play, snap); err != nil {
			d.Err = err
			m.logger.Error().Err(err).Str("rule", d.Play.ID).Str("key", d.Key).Msg("Failed to deliver play")
			continue
		}
		d.Delivered = true
		st.PerKey[d.Key] = now
		delivered++
		m.logger.Info().Str("rule", d.Play.ID).Str("key", d.Key).Int("quality", d.Play.Quality.Value).Msg("Play emitted")
	}

	if delivered == 0 {
		return decisions, nil
	}

	st.GlobalLastEmit = now
	for k, ts := range st.PerKey {
		if now.Sub(ts) >= m.params.KeyTTL {
			delete(st.PerKey, k)
		}
	}
	if err := m.save(ctx, st); err != nil {
		return decisions, err
	}
	return decisions, nil
}

func (m *Manager) load(ctx context.Context) (*dedupState, error) {
	st := &dedupState{PerKey: make(map[string]time.Time)}

	raw, ok, err := m.store.Get(ctx, m.params.StateKey)
	if err != nil {
		return nil, fmt.Errorf("load dedup state: %w", err)
	}
	if !ok {
		return st, nil
	}

	if err := json.Unmarshal(raw, st); err != nil {
		m.logger.Warn().Err(err).Msg("Corrupt dedup state, starting fresh")
		return &dedupState{PerKey: make(map[string]time.Time)}, nil
	}
	if st.PerKey == nil {
		st.PerKey = make(map[string]time.Time)
	}
	return st, nil
}

func (m *Manager) save(ctx context.Context, st *dedupState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode dedup state: %w", err)
	}
	if err := m.store.Set(ctx, m.params.StateKey, raw); err != nil {
		return fmt.Errorf("save dedup state: %w", err)
	}
	return nil
}
