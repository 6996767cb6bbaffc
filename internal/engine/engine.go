package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/internal/analyze"
	"github.com/Alias1177/SignalDesk/internal/gate"
	"github.com/Alias1177/SignalDesk/internal/metrics"
	"github.com/Alias1177/SignalDesk/internal/signals"
	"github.com/Alias1177/SignalDesk/models"
)

// Params configures one scan
type Params struct {
	Symbol       string
	Analyze      analyze.Params
	Gate         gate.Params
	BarLimits    map[models.Timeframe]int
	FundingLimit int
}

// historyDays is the lookback fetched per timeframe. Each covers EMA200 and the
// 1h window spans more than a week for the weekly VWAP.
var historyDays = map[models.Timeframe]int{
	models.TF15m: 5,
	models.TF1h:  10,
	models.TF4h:  50,
	models.TF1d:  365,
	models.TF1w:  1400,
}

// DefaultBarLimits converts historyDays into bar counts
func DefaultBarLimits() map[models.Timeframe]int {
	out := make(map[models.Timeframe]int, len(historyDays))
	for tf, days := range historyDays {
		out[tf] = models.BarsForDays(tf, days)
	}
	return out
}

// Result is everything one tick produced
type Result struct {
	TickID     string
	Snapshot   *models.Snapshot
	Candidates []signals.Candidate
	Plays      []models.Play
	Decisions  []gate.Decision
}

// Engine runs fetch, snapshot, detection, gating and emission for one symbol
type Engine struct {
	provider models.MarketDataProvider
	detector *signals.Detector
	manager  *gate.Manager
	metrics  *metrics.Recorder
	params   Params
	now      func() time.Time
}

// New creates an engine. manager may be nil when only snapshots are built.
func New(provider models.MarketDataProvider, detector *signals.Detector, manager *gate.Manager, recorder *metrics.Recorder, p Params) *Engine {
	if p.BarLimits == nil {
		p.BarLimits = DefaultBarLimits()
	}
	if p.FundingLimit == 0 {
		p.FundingLimit = 90
	}
	return &Engine{
		provider: provider,
		detector: detector,
		manager:  manager,
		metrics:  recorder,
		params:   p,
		now:      time.Now,
	}
}

func (e *Engine) tickLogger() (string, zerolog.Logger) {
	id := uuid.NewString()
	return id, log.With().Str("component", "engine").Str("tick_id", id).Str("symbol", e.params.Symbol).Logger()
}

// Snapshot fetches market data and builds the snapshot without detecting plays
func (e *Engine) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	_, logger := e.tickLogger()
	return e.snapshot(ctx, logger)
}

func (e *Engine) snapshot(ctx context.Context, logger zerolog.Logger) (*models.Snapshot, error) {
	in := e.fetch(ctx, logger)
	snap, err := analyze.BuildSnapshot(in, e.params.Analyze)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientHistory) {
			e.metrics.RecordSectionFailure("snapshot")
		}
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	return snap, nil
}

// Tick runs a full scan. Sections that fail to fetch degrade the snapshot; only a
// missing 15m series, a state store failure or a config error abort the tick.
func (e *Engine) Tick(ctx context.Context) (*Result, error) {
	if e.manager == nil {
		return nil, &models.ConfigError{Field: "engine", Reason: "no lifecycle manager configured"}
	}

	started := e.now()
	tickID, logger := e.tickLogger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("Tick started")

	snap, err := e.snapshot(ctx, logger)
	if err != nil {
		return nil, err
	}
	res := &Result{TickID: tickID, Snapshot: snap}

	res.Candidates = e.detector.Detect(snap)
	for _, c := range res.Candidates {
		e.metrics.RecordRule(c.Rule.ID, c.Detected())
		if !c.Detected() {
			continue
		}
		gate.Apply(c.Play, snap.Regime, gate.Traits{Breakout: c.Rule.Breakout, CounterTrend: c.Rule.CounterTrend}, e.params.Gate)
		e.metrics.RecordQuality(c.Rule.ID, c.Play.Quality.Value)
		res.Plays = append(res.Plays, *c.Play)
	}

	decisions, err := e.manager.Process(ctx, res.Plays, snap)
	res.Decisions = decisions
	for _, d := range decisions {
		e.metrics.RecordEmission(d.Play.ID, emissionResult(d))
	}
	if err != nil {
		return res, fmt.Errorf("emit plays: %w", err)
	}

	finished := e.now()
	e.metrics.RecordTick(snap.Stress, started, finished)

	delivered := 0
	for _, d := range decisions {
		if d.Delivered {
			delivered++
		}
	}
	logger.Info().
		Int("plays", len(res.Plays)).
		Int("delivered", delivered).
		Int("stress", snap.Stress).
		Str("htf_trend", string(snap.Regime.HTFTrend)).
		Dur("took", finished.Sub(started)).
		Msg("Tick finished")
	return res, nil
}

func emissionResult(d gate.Decision) string {
	switch {
	case d.Delivered:
		return "delivered"
	case d.Err != nil:
		return "failed"
	}
	return d.Reason
}

// fetch loads every section concurrently. Failed sections are logged and left nil.
func (e *Engine) fetch(ctx context.Context, logger zerolog.Logger) analyze.Input {
	in := analyze.Input{
		Symbol: e.params.Symbol,
		AsOf:   e.now().UTC(),
		Bars:   make(map[models.Timeframe][]models.Bar, len(models.Timeframes)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(section string, err error) {
		logger.Warn().Str("section", section).Err(err).Msg("Section unavailable")
		e.metrics.RecordSectionFailure(section)
	}
	run := func(section string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				fail(section, err)
			}
		}()
	}

	for _, tf := range models.Timeframes {
		tf := tf
		run("bars_"+string(tf), func() error {
			bars, err := e.provider.GetBars(ctx, e.params.Symbol, tf, e.params.BarLimits[tf])
			if err != nil {
				return err
			}
			mu.Lock()
			in.Bars[tf] = bars
			mu.Unlock()
			return nil
		})
	}

	run("open_interest", func() error {
		oi, err := e.provider.GetOpenInterest(ctx, e.params.Symbol)
		if err != nil {
			return err
		}
		mu.Lock()
		in.Context.OpenInterest = oi
		mu.Unlock()
		return nil
	})
	run("funding", func() error {
		funding, err := e.provider.GetFundingHistory(ctx, e.params.Symbol, e.params.FundingLimit)
		if err != nil {
			return err
		}
		mu.Lock()
		in.Context.Funding = funding
		mu.Unlock()
		return nil
	})
	run("liquidations", func() error {
		liq, err := e.provider.GetLiquidations(ctx, e.params.Symbol)
		if err != nil {
			return err
		}
		mu.Lock()
		in.Context.Liquidations = liq
		mu.Unlock()
		return nil
	})
	run("sentiment", func() error {
		sent, err := e.provider.GetSentiment(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		in.Context.Sentiment = sent
		mu.Unlock()
		return nil
	})
	run("global", func() error {
		global, err := e.provider.GetGlobalMarket(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		in.Context.Global = global
		mu.Unlock()
		return nil
	})

	wg.Wait()
	return in
}
