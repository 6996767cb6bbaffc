package analyze

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/internal/analysis/market"
	"github.com/Alias1177/SignalDesk/internal/analysis/technical"
	"github.com/Alias1177/SignalDesk/internal/calculate"
	"github.com/Alias1177/SignalDesk/internal/patterns"
	"github.com/Alias1177/SignalDesk/models"
)

// Params is the snapshot builder tuning
type Params struct {
	Periods          calculate.Periods        `yaml:"periods"`
	BucketWidth      float64                  `yaml:"bucket_width"`
	Pivots           patterns.PivotParams     `yaml:"pivots"`
	Trendline        patterns.TrendlineParams `yaml:"trendline"`
	Regime           market.RegimeParams      `yaml:"regime"`
	Stress           market.StressParams      `yaml:"stress"`
	OpeningRangeBars int                      `yaml:"opening_range_bars"`
	RecentBars       int                      `yaml:"recent_bars"`
}

// DefaultParams returns the stock snapshot tuning
func DefaultParams() Params {
	return Params{
		Periods:          calculate.DefaultPeriods(),
		BucketWidth:      100,
		Pivots:           patterns.PivotParams{Method: patterns.MethodZigZag, FractalWindow: 3, ZigZagPct: 0.06},
		Trendline:        patterns.DefaultTrendlineParams(),
		Regime:           market.DefaultRegimeParams(),
		Stress:           market.DefaultStressParams(),
		OpeningRangeBars: 4,
		RecentBars:       16,
	}
}

// Input is the raw data of one tick
type Input struct {
	Symbol  string
	AsOf    time.Time
	Bars    map[models.Timeframe][]models.Bar
	Context models.MarketContext
}

// profileTimeframes get a volume profile
var profileTimeframes = []models.Timeframe{models.TF4h, models.TF1d, models.TF1w}

// BuildSnapshot derives the full market state from one tick of raw data. Only missing
// 15m bars are fatal; every other absent section leaves its field empty.
func BuildSnapshot(in Input, p Params) (*models.Snapshot, error) {
	logger := log.With().Str("component", "analyze").Str("symbol", in.Symbol).Logger()

	ltf := in.Bars[models.TF15m]
	if len(ltf) == 0 {
		return nil, fmt.Errorf("15m bars: %w", models.ErrInsufficientHistory)
	}

	snap := &models.Snapshot{
		Symbol:     in.Symbol,
		AsOf:       in.AsOf,
		Price:      ltf[len(ltf)-1].Close,
		Indicators: make(map[models.Timeframe]models.IndicatorSet, len(models.Timeframes)),
		Profiles:   make(map[models.Timeframe]*models.VolumeProfile, len(profileTimeframes)),
		Context:    in.Context,
	}
	snap.Context.FundingZ = calculate.Round2(calculate.ZScore(in.Context.Funding))

	// Timeframes are independent of each other
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, tf := range models.Timeframes {
		bars := in.Bars[tf]
		if len(bars) == 0 {
			logger.Warn().Str("section", "indicators_"+string(tf)).Err(models.ErrInsufficientHistory).Msg("No bars for timeframe")
			continue
		}

		wg.Add(1)
		go func(tf models.Timeframe, bars []models.Bar) {
			defer wg.Done()
			set := calculate.CalculateIndicatorSet(bars, p.Periods)
			// a forming bar has only part of its volume
			set.RelVolume, set.RelVolumeLevel = calculate.BarRelativeVolume(models.ClosedBars(bars, tf, in.AsOf))
			mu.Lock()
			snap.Indicators[tf] = set
			mu.Unlock()
		}(tf, bars)
	}
	wg.Wait()

	for _, tf := range profileTimeframes {
		closed := models.ClosedBars(in.Bars[tf], tf, in.AsOf)
		if profile := technical.BuildVolumeProfile(closed, p.BucketWidth); profile != nil {
			snap.Profiles[tf] = profile
		}
	}

	session := technical.SessionVWAP(ltf, in.AsOf, snap.Price)
	snap.SessionVWAP = &session
	if h1 := in.Bars[models.TF1h]; len(h1) > 0 {
		weekly := technical.WeeklyVWAP(h1, in.AsOf, snap.Price)
		snap.WeeklyVWAP = &weekly
	} else {
		logger.Warn().Str("section", "weekly_vwap").Err(models.ErrInsufficientHistory).Msg("No 1h bars for weekly VWAP")
	}

	buildStructure(snap, in.Bars[models.TF1d], p)
	buildSession(snap, ltf, p)

	ltfSet := snap.Indicators[models.TF15m]
	snap.Regime = market.ClassifyRegime(
		snap.Indicators[models.TF1d],
		snap.Indicators[models.TF4h],
		ltfSet,
		snap.Price,
		snap.SessionVWAP,
		p.Regime,
	)

	stress, flags := market.StressIndex(ltfSet, &ltf[len(ltf)-1], snap.Context, p.Stress)
	snap.Stress = stress

	logger.Debug().
		Float64("price", snap.Price).
		Str("htf_trend", string(snap.Regime.HTFTrend)).
		Bool("adx_strong", snap.Regime.ADXStrong).
		Bool("compression", snap.Regime.LTFCompression).
		Bool("expansion", snap.Regime.LTFExpansion).
		Int("stress", stress).
		Strs("stress_flags", flags).
		Int("pivots", len(snap.Pivots)).
		Msg("Snapshot built")

	return snap, nil
}

// buildStructure detects daily pivots and fits the trendlines
func buildStructure(snap *models.Snapshot, daily []models.Bar, p Params) {
	logger := log.With().Str("component", "analyze").Str("section", "structure").Logger()
	if len(daily) == 0 {
		logger.Warn().Err(models.ErrInsufficientHistory).Msg("No daily bars for pivots")
		return
	}

	snap.Pivots = patterns.DetectPivots(daily, p.Pivots)
	last := len(daily) - 1

	snap.Support = patterns.FitTrendLine(snap.Pivots, models.LineSupport, last, p.Trendline)
	snap.Resistance = patterns.FitTrendLine(snap.Pivots, models.LineResistance, last, p.Trendline)
	snap.SupportLastTwo = patterns.LastTwoPivots(snap.Pivots, models.LineSupport, last, p.Trendline)
	snap.ResistanceLastTwo = patterns.LastTwoPivots(snap.Pivots, models.LineResistance, last, p.Trendline)

	if snap.Support == nil {
		logger.Debug().Err(models.ErrNoCandidate).Msg("No support line")
	}
	if snap.Resistance == nil {
		logger.Debug().Err(models.ErrNoCandidate).Msg("No resistance line")
	}
}

// buildSession fills the opening range and the recent 15m window
func buildSession(snap *models.Snapshot, ltf []models.Bar, p Params) {
	start := models.SessionStart(snap.AsOf)

	var session []models.Bar
	for _, b := range ltf {
		if !b.OpenTime.Before(start) {
			session = append(session, b)
		}
	}
	snap.SessionBars = len(session)
	if len(session) > 0 {
		snap.SessionOpen = session[0].Open
	}

	if n := p.OpeningRangeBars; n > 0 && len(session) >= n {
		opening := models.Range{Low: session[0].Low, High: session[0].High}
		for _, b := range session[1:n] {
			if b.Low < opening.Low {
				opening.Low = b.Low
			}
			if b.High > opening.High {
				opening.High = b.High
			}
		}
		snap.OpeningRange = &opening
	}

	recent := p.RecentBars
	if recent <= 0 || recent > len(ltf) {
		recent = len(ltf)
	}
	snap.Recent15m = append([]models.Bar(nil), ltf[len(ltf)-recent:]...)
}
