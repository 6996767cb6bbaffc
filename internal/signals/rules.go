package signals

import (
	"fmt"
	"math"

	"github.com/Alias1177/SignalDesk/internal/scoring"
	"github.com/Alias1177/SignalDesk/models"
)

const (
	retestBand         = 0.5 // ATRs above a broken line still counted as a retest
	breakoutExtension  = 1.0 // ATRs a close must clear the line by
	reclaimDistance    = 1.0 // ATRs from the anchored VWAP
	fundingExtremeZ    = 2.0
	sweepImbalance     = 2.0
	sweepMinNotional   = 5_000_000
	sweepLookback      = 8
	boxMaxHeightPct    = 1.5
	boxMinOIChangePct  = 5.0
	pullbackBand       = 0.5 // ATRs around the 1h EMA50
	orbMaxExtension    = 1.0
	kickMaxSessionBars = 8
)

// Catalogue returns the rule set in evaluation order
func Catalogue() []Rule {
	return []Rule{
		{
			ID:       "breakout_retest",
			Name:     "Trendline breakout retest",
			Gate:     6,
			Weights:  scoring.Weights{1.5, 1, 1, 1.5, 1},
			Breakout: true,
			Evaluate: breakoutRetest,
			Catalyst: volumeExpansionCatalyst,
		},
		{
			ID:       "avwap_reclaim",
			Name:     "Weekly AVWAP reclaim",
			Gate:     6,
			Weights:  scoring.Weights{1, 1, 1, 1.5, 1},
			Evaluate: avwapReclaim,
			Catalyst: volumeCatalyst,
		},
		{
			ID:           "funding_fade",
			Name:         "Funding extreme fade",
			Gate:         6,
			Weights:      scoring.Weights{0.5, 0.5, 2, 1, 1},
			CounterTrend: true,
			Evaluate:     fundingFade,
			Catalyst:     fundingCatalyst,
		},
		{
			ID:           "liquidation_sweep",
			Name:         "Liquidation sweep reclaim",
			Gate:         6,
			Weights:      scoring.Weights{0.5, 1, 2, 1, 1},
			CounterTrend: true,
			Evaluate:     liquidationSweep,
			Catalyst:     liquidationCatalyst,
		},
		{
			ID:       "oi_compression_box",
			Name:     "OI build-up compression box",
			Gate:     5,
			Weights:  scoring.Weights{0.5, 1, 0, 1.5, 1},
			Breakout: true,
			Evaluate: oiCompressionBox,
			Catalyst: oiCatalyst,
		},
		{
			ID:       "ema_pullback",
			Name:     "EMA pullback continuation",
			Gate:     6,
			Weights:  scoring.Weights{2, 1, 0.5, 1, 1},
			Evaluate: emaPullback,
			Catalyst: trendStrengthCatalyst,
		},
		{
			ID:       "opening_range_breakout",
			Name:     "Opening range breakout",
			Gate:     6,
			Weights:  scoring.Weights{1, 1.5, 1, 1, 1},
			Breakout: true,
			Evaluate: openingRangeBreakout,
			Catalyst: volumeExpansionCatalyst,
		},
		{
			ID:           "vwap_band_fade",
			Name:         "Session VWAP 2σ fade",
			Gate:         6,
			Weights:      scoring.Weights{0.5, 0.5, 1, 1.5, 1},
			CounterTrend: true,
			Evaluate:     vwapBandFade,
			Catalyst:     rsiExtremeCatalyst,
		},
		{
			ID:       "session_open_kick",
			Name:     "Session open momentum kick",
			Gate:     6,
			Weights:  scoring.Weights{1, 2, 1, 0.5, 1},
			Breakout: true,
			Evaluate: sessionOpenKick,
			Catalyst: volumeCatalyst,
		},
	}
}

func ltfATR(snap *models.Snapshot) float64 {
	return snap.Indicator(models.TF15m).ATR
}

func newPlay(d models.Direction, lo, hi, stop, ref float64, reasons ...string) *models.Play {
	if lo > hi {
		lo, hi = hi, lo
	}
	return &models.Play{
		Direction: d,
		EntryZone: models.Range{Low: lo, High: hi},
		Stop:      stop,
		RefLevel:  ref,
		Reasons:   reasons,
	}
}

// nearestLevel returns the weekly VWAP or projected trendline closest to price,
// 0 when the snapshot has none
func nearestLevel(snap *models.Snapshot) float64 {
	var levels []float64
	if snap.WeeklyVWAP != nil {
		levels = append(levels, snap.WeeklyVWAP.VWAP)
	}
	for _, line := range []*models.TrendLine{snap.Support, snap.Resistance} {
		if line != nil {
			levels = append(levels, line.ProjectedToday)
		}
	}

	best := 0.0
	for _, lvl := range levels {
		if lvl <= 0 {
			continue
		}
		if best == 0 || math.Abs(lvl-snap.Price) < math.Abs(best-snap.Price) {
			best = lvl
		}
	}
	return best
}

func maxClose(bars []models.Bar) float64 {
	m := math.Inf(-1)
	for _, b := range bars {
		m = math.Max(m, b.Close)
	}
	return m
}

func minClose(bars []models.Bar) float64 {
	m := math.Inf(1)
	for _, b := range bars {
		m = math.Min(m, b.Close)
	}
	return m
}

func breakoutRetest(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	if snap.Resistance == nil && snap.Support == nil {
		return nil, "no fitted trendline"
	}
	if len(snap.Recent15m) == 0 {
		return nil, "no recent 15m bars"
	}

	price := snap.Price
	if l := snap.Resistance; l != nil {
		lvl := l.ProjectedToday
		if maxClose(snap.Recent15m) >= lvl+breakoutExtension*atr && price >= lvl && price-lvl <= retestBand*atr {
			return newPlay(models.Long, lvl, lvl+retestBand*atr, lvl-atr, lvl,
				fmt.Sprintf("broke resistance %.2f, retesting", lvl)), ""
		}
	}
	if l := snap.Support; l != nil {
		lvl := l.ProjectedToday
		if minClose(snap.Recent15m) <= lvl-breakoutExtension*atr && price <= lvl && lvl-price <= retestBand*atr {
			return newPlay(models.Short, lvl-retestBand*atr, lvl, lvl+atr, lvl,
				fmt.Sprintf("broke support %.2f, retesting", lvl)), ""
		}
	}
	return nil, "no trendline break with retest"
}

func avwapReclaim(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	band := snap.WeeklyVWAP
	if band == nil {
		return nil, "no weekly VWAP"
	}
	if len(snap.Recent15m) < 2 {
		return nil, "not enough 15m bars"
	}

	prev := snap.Recent15m[len(snap.Recent15m)-2].Close
	price, vwap := snap.Price, band.VWAP
	if math.Abs(price-vwap) > reclaimDistance*atr {
		return nil, "price too far from weekly VWAP"
	}

	switch {
	case prev < vwap && price > vwap:
		return newPlay(models.Long, vwap, vwap+0.25*atr, vwap-atr, vwap,
			fmt.Sprintf("reclaimed weekly VWAP %.2f", vwap)), ""
	case prev > vwap && price < vwap:
		return newPlay(models.Short, vwap-0.25*atr, vwap, vwap+atr, vwap,
			fmt.Sprintf("lost weekly VWAP %.2f", vwap)), ""
	}
	return nil, "no cross of weekly VWAP"
}

func fundingFade(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	if len(snap.Context.Funding) == 0 {
		return nil, "no funding history"
	}

	z := snap.Context.FundingZ
	rsi := snap.Indicator(models.TF15m).RSI14
	price := snap.Price
	ref := nearestLevel(snap)
	switch {
	case z <= -fundingExtremeZ && rsi <= 45:
		return newPlay(models.Long, price-0.25*atr, price, price-1.5*atr, ref,
			fmt.Sprintf("funding z %.2f, shorts crowded", z)), ""
	case z >= fundingExtremeZ && rsi >= 55:
		return newPlay(models.Short, price, price+0.25*atr, price+1.5*atr, ref,
			fmt.Sprintf("funding z %.2f, longs crowded", z)), ""
	}
	return nil, fmt.Sprintf("funding z %.2f not extreme", z)
}

func liquidationSweep(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	liq := snap.Context.Liquidations
	if liq == nil {
		return nil, "no liquidation data"
	}
	if liq.Total() < sweepMinNotional {
		return nil, "liquidations below notional"
	}
	n := len(snap.Recent15m)
	if n < sweepLookback+1 {
		return nil, "not enough 15m bars"
	}

	last := snap.Recent15m[n-1]
	prior := snap.Recent15m[n-1-sweepLookback : n-1]
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range prior {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}

	switch {
	case liq.LongUSD >= sweepImbalance*liq.ShortUSD && last.Low < lo && last.Close > lo:
		return newPlay(models.Long, lo, last.Close, last.Low-0.25*atr, lo,
			fmt.Sprintf("longs flushed below %.2f and reclaimed", lo)), ""
	case liq.ShortUSD >= sweepImbalance*liq.LongUSD && last.High > hi && last.Close < hi:
		return newPlay(models.Short, last.Close, hi, last.High+0.25*atr, hi,
			fmt.Sprintf("shorts squeezed above %.2f and rejected", hi)), ""
	}
	return nil, "no sweep of recent range"
}

func oiCompressionBox(snap *models.Snapshot) (*models.Play, string) {
	oi := snap.Context.OpenInterest
	if oi == nil {
		return nil, "no open interest data"
	}
	if oi.Change24hPct < boxMinOIChangePct {
		return nil, fmt.Sprintf("OI change %.1f%% too small", oi.Change24hPct)
	}
	if !snap.Regime.LTFCompression {
		return nil, "no compression"
	}
	if len(snap.Recent15m) == 0 || snap.Price <= 0 {
		return nil, "no recent 15m bars"
	}

	box := models.Range{Low: math.Inf(1), High: math.Inf(-1)}
	for _, b := range snap.Recent15m {
		box.Low = math.Min(box.Low, b.Low)
		box.High = math.Max(box.High, b.High)
	}
	if box.Height() <= 0 {
		return nil, "degenerate box"
	}
	if box.Height()/snap.Price*100 > boxMaxHeightPct {
		return nil, "box too wide"
	}
	return newPlay(models.Break, box.Low, box.High, box.Mid(), box.Mid(),
		fmt.Sprintf("OI +%.1f%% inside %.2f-%.2f box", oi.Change24hPct, box.Low, box.High)), ""
}

func emaPullback(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	ema := snap.Indicator(models.TF1h).EMA50
	if ema <= 0 {
		return nil, "no 1h EMA50"
	}
	if math.Abs(snap.Price-ema) > pullbackBand*atr {
		return nil, "price not at 1h EMA50"
	}

	rsi := snap.Indicator(models.TF15m).RSI14
	if rsi < 40 || rsi > 60 {
		return nil, fmt.Sprintf("RSI %.1f outside pullback range", rsi)
	}

	switch snap.Regime.HTFTrend {
	case models.TrendUp:
		return newPlay(models.Long, ema-0.25*atr, ema+0.25*atr, ema-1.5*atr, ema,
			fmt.Sprintf("uptrend pullback to 1h EMA50 %.2f", ema)), ""
	case models.TrendDown:
		return newPlay(models.Short, ema-0.25*atr, ema+0.25*atr, ema+1.5*atr, ema,
			fmt.Sprintf("downtrend pullback to 1h EMA50 %.2f", ema)), ""
	}
	return nil, "no higher timeframe trend"
}

func openingRangeBreakout(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	rng := snap.OpeningRange
	if rng == nil {
		return nil, "opening range not formed"
	}

	price := snap.Price
	switch {
	case price > rng.High && price-rng.High <= orbMaxExtension*atr:
		return newPlay(models.Long, rng.High, price, rng.Mid(), rng.High,
			fmt.Sprintf("above opening range high %.2f", rng.High)), ""
	case price < rng.Low && rng.Low-price <= orbMaxExtension*atr:
		return newPlay(models.Short, price, rng.Low, rng.Mid(), rng.Low,
			fmt.Sprintf("below opening range low %.2f", rng.Low)), ""
	case price > rng.High || price < rng.Low:
		return nil, "breakout already extended"
	}
	return nil, "inside opening range"
}

func vwapBandFade(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	band := snap.SessionVWAP
	if band == nil || band.Sigma <= 0 {
		return nil, "no session VWAP dispersion"
	}

	price := snap.Price
	switch {
	case price >= band.Upper2:
		return newPlay(models.Short, band.Upper15, price, price+atr, band.Upper2,
			fmt.Sprintf("stretched above +2σ %.2f", band.Upper2)), ""
	case price <= band.Lower2:
		return newPlay(models.Long, price, band.Lower15, price-atr, band.Lower2,
			fmt.Sprintf("stretched below -2σ %.2f", band.Lower2)), ""
	}
	return nil, "inside 2σ bands"
}

func sessionOpenKick(snap *models.Snapshot) (*models.Play, string) {
	atr := ltfATR(snap)
	if atr <= 0 {
		return nil, "no 15m ATR"
	}
	if snap.SessionBars == 0 || snap.SessionBars > kickMaxSessionBars {
		return nil, "outside session open window"
	}

	ltf := snap.Indicator(models.TF15m)
	if !ltf.RelVolumeLevel.IsHigh() {
		return nil, "no volume on open"
	}

	open, price := snap.SessionOpen, snap.Price
	switch {
	case price >= open+atr && ltf.ROC10 > 0:
		return newPlay(models.Long, open+atr, price, open, open,
			fmt.Sprintf("kicked %.2f above session open", price-open)), ""
	case price <= open-atr && ltf.ROC10 < 0:
		return newPlay(models.Short, price, open-atr, open, open,
			fmt.Sprintf("kicked %.2f below session open", open-price)), ""
	}
	return nil, "no kick from session open"
}

func volumeCatalyst(snap *models.Snapshot, _ models.Play) int {
	switch snap.Indicator(models.TF15m).RelVolumeLevel {
	case models.RelVolumeVeryHigh:
		return 2
	case models.RelVolumeHigh:
		return 1
	}
	return 0
}

func volumeExpansionCatalyst(snap *models.Snapshot, _ models.Play) int {
	c := 0
	if snap.Indicator(models.TF15m).RelVolumeLevel.IsHigh() {
		c++
	}
	if snap.Regime.LTFExpansion {
		c++
	}
	return c
}

func fundingCatalyst(snap *models.Snapshot, play models.Play) int {
	c := 0
	if math.Abs(snap.Context.FundingZ) >= 3 {
		c++
	}
	if s := snap.Context.Sentiment; s != nil {
		if (play.Direction == models.Long && s.Value <= 25) || (play.Direction == models.Short && s.Value >= 75) {
			c++
		}
	}
	return c
}

func liquidationCatalyst(snap *models.Snapshot, _ models.Play) int {
	liq := snap.Context.Liquidations
	if liq == nil {
		return 0
	}
	switch {
	case liq.Total() >= 5*sweepMinNotional:
		return 2
	case liq.Total() >= 2*sweepMinNotional:
		return 1
	}
	return 0
}

func oiCatalyst(snap *models.Snapshot, _ models.Play) int {
	c := 0
	if oi := snap.Context.OpenInterest; oi != nil && oi.Change24hPct >= 2*boxMinOIChangePct {
		c++
	}
	if math.Abs(snap.Context.FundingZ) >= 1.5 {
		c++
	}
	return c
}

func trendStrengthCatalyst(snap *models.Snapshot, _ models.Play) int {
	if snap.Regime.ADXStrong {
		return 1
	}
	return 0
}

func rsiExtremeCatalyst(snap *models.Snapshot, play models.Play) int {
	rsi := snap.Indicator(models.TF15m).RSI14
	if (play.Direction == models.Short && rsi >= 75) || (play.Direction == models.Long && rsi <= 25) {
		return 1
	}
	return 0
}
