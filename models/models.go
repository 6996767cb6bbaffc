package models

import (
	"time"
)

// Timeframe identifies a bar interval
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

// Timeframes lists every interval the scanner fetches, lowest first
var Timeframes = []Timeframe{TF15m, TF1h, TF4h, TF1d, TF1w}

// Bar represents a single OHLCV price bar
type Bar struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// RelVolumeLevel buckets the last bar volume against its recent average
type RelVolumeLevel string

const (
	RelVolumeLow      RelVolumeLevel = "low"
	RelVolumeNormal   RelVolumeLevel = "normal"
	RelVolumeHigh     RelVolumeLevel = "high"
	RelVolumeVeryHigh RelVolumeLevel = "very_high"
)

// IsHigh reports whether the level is high or very high
func (l RelVolumeLevel) IsHigh() bool {
	return l == RelVolumeHigh || l == RelVolumeVeryHigh
}

// IndicatorSet holds the indicators computed for one timeframe
type IndicatorSet struct {
	Close          float64        `json:"close"`
	EMA50          float64        `json:"ema50"`
	EMA200         float64        `json:"ema200"`
	RSI14          float64        `json:"rsi14"`
	ATR            float64        `json:"atr"`
	ATRPct         float64        `json:"atr_pct"`
	MACDHist       float64        `json:"macd_hist"`
	ADX14          *float64       `json:"adx14,omitempty"` // nil with less than 2x period bars
	ROC10          float64        `json:"roc10"`
	ROC20          float64        `json:"roc20"`
	RelVolume      float64        `json:"rel_volume"`
	RelVolumeLevel RelVolumeLevel `json:"rel_volume_level"`
}

// ADX returns the ADX value and whether it was computed
func (s IndicatorSet) ADX() (float64, bool) {
	if s.ADX14 == nil {
		return 0, false
	}
	return *s.ADX14, true
}

// PivotKind is the type of a swing extreme
type PivotKind string

const (
	PivotHigh PivotKind = "HIGH"
	PivotLow  PivotKind = "LOW"
)

// Pivot is a detected local price extreme. Index refers to the daily bar sequence.
type Pivot struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	Price     float64   `json:"price"`
	Kind      PivotKind `json:"kind"`
	Confirmed bool      `json:"confirmed"`
}

// LineKind says which side of price a trendline bounds
type LineKind string

const (
	LineSupport    LineKind = "support"
	LineResistance LineKind = "resistance"
)

// TrendLine is a fitted line through two same-kind pivots
type TrendLine struct {
	Kind           LineKind `json:"kind"`
	Slope          float64  `json:"slope"`
	Intercept      float64  `json:"intercept"`
	AnchorA        Pivot    `json:"anchor_a"`
	AnchorB        Pivot    `json:"anchor_b"`
	ProjectedToday float64  `json:"projected_today"`
	Violations     int      `json:"violations"`
}

// ValueAt returns the line price at a bar index
func (l TrendLine) ValueAt(index int) float64 {
	return l.Slope*float64(index) + l.Intercept
}

// VolumeBucket is the traded volume accumulated at one price level
type VolumeBucket struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// VolumeProfile aggregates volume per price bucket. Buckets keep insertion order.
type VolumeProfile struct {
	BucketWidth    float64        `json:"bucket_width"`
	PointOfControl float64        `json:"point_of_control"`
	Buckets        []VolumeBucket `json:"buckets"`
}

// VwapBand is a volume-weighted average price with dispersion bands
type VwapBand struct {
	Anchor       time.Time `json:"anchor"`
	VWAP         float64   `json:"vwap"`
	Sigma        float64   `json:"sigma"`
	Upper1       float64   `json:"upper_1"`
	Upper15      float64   `json:"upper_1_5"`
	Upper2       float64   `json:"upper_2"`
	Lower1       float64   `json:"lower_1"`
	Lower15      float64   `json:"lower_1_5"`
	Lower2       float64   `json:"lower_2"`
	BandWidthPct float64   `json:"band_width_pct"` // (Upper1-Lower1)/VWAP*100
}

// Trend is the higher timeframe directional bias
type Trend string

const (
	TrendUp    Trend = "UP"
	TrendDown  Trend = "DOWN"
	TrendRange Trend = "RANGE"
)

// Regime is the coarse market classification for one invocation
type Regime struct {
	HTFTrend       Trend `json:"htf_trend"`
	ADXStrong      bool  `json:"adx_strong"`
	LTFCompression bool  `json:"ltf_compression"`
	LTFExpansion   bool  `json:"ltf_expansion"`
}

// Range is a closed price interval
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the midpoint of the range
func (r Range) Mid() float64 {
	return (r.Low + r.High) / 2
}

// Height returns High-Low
func (r Range) Height() float64 {
	return r.High - r.Low
}

// OpenInterest is the current open interest and its recent history (oldest first)
type OpenInterest struct {
	Current float64   `json:"current"`
	History []float64 `json:"history"`
	// Change24hPct is the change of Current against the value 24 samples back
	Change24hPct float64 `json:"change_24h_pct"`
}

// Liquidations aggregates recent forced-order notional per side
type Liquidations struct {
	LongUSD  float64 `json:"long_usd"`
	ShortUSD float64 `json:"short_usd"`
}

// Total returns LongUSD+ShortUSD
func (l Liquidations) Total() float64 {
	return l.LongUSD + l.ShortUSD
}

// Sentiment is a 0-100 fear and greed style index
type Sentiment struct {
	Value          float64 `json:"value"`
	Classification string  `json:"classification"`
}

// GlobalMarket holds the aggregate crypto market figures
type GlobalMarket struct {
	TotalMarketCapUSD float64 `json:"total_market_cap_usd"`
	BTCDominance      float64 `json:"btc_dominance"`
}

// MarketContext holds the non-bar inputs. A nil section means the data was unavailable.
type MarketContext struct {
	OpenInterest *OpenInterest `json:"open_interest,omitempty"`
	Funding      []float64     `json:"funding,omitempty"`
	FundingZ     float64       `json:"funding_z"`
	Liquidations *Liquidations `json:"liquidations,omitempty"`
	Sentiment    *Sentiment    `json:"sentiment,omitempty"`
	Global       *GlobalMarket `json:"global,omitempty"`
}

// LastFunding returns the latest funding rate or 0
func (c MarketContext) LastFunding() float64 {
	if len(c.Funding) == 0 {
		return 0
	}
	return c.Funding[len(c.Funding)-1]
}

// Snapshot is the market-state object handed to the signal detector
type Snapshot struct {
	Symbol     string                       `json:"symbol"`
	AsOf       time.Time                    `json:"as_of"`
	Price      float64                      `json:"price"`
	Indicators map[Timeframe]IndicatorSet   `json:"indicators"`
	Profiles   map[Timeframe]*VolumeProfile `json:"profiles"`

	SessionVWAP *VwapBand `json:"session_vwap,omitempty"`
	WeeklyVWAP  *VwapBand `json:"weekly_vwap,omitempty"`

	Pivots            []Pivot    `json:"pivots"`
	Support           *TrendLine `json:"support,omitempty"`
	Resistance        *TrendLine `json:"resistance,omitempty"`
	SupportLastTwo    *TrendLine `json:"support_last_two,omitempty"`
	ResistanceLastTwo *TrendLine `json:"resistance_last_two,omitempty"`

	Regime Regime `json:"regime"`
	Stress int    `json:"stress"`

	OpeningRange *Range  `json:"opening_range,omitempty"`
	SessionOpen  float64 `json:"session_open"`
	SessionBars  int     `json:"session_bars"`
	Recent15m    []Bar   `json:"recent_15m"`

	Context MarketContext `json:"context"`
}

// Indicator returns the indicator set for a timeframe (zero value when missing)
func (s *Snapshot) Indicator(tf Timeframe) IndicatorSet {
	return s.Indicators[tf]
}

// Direction of a play
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Break Direction = "BREAK" // two-sided breakout of a range
)

// Sign returns +1 for Long, -1 for Short and 0 for Break
func (d Direction) Sign() int {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}

// Factors are the five quality sub-factors, each in {0,1,2}
type Factors struct {
	Alignment int `json:"alignment"`
	Momentum  int `json:"momentum"`
	Crowd     int `json:"crowd"`
	Structure int `json:"structure"`
	Risk      int `json:"risk"`
}

// Values returns the factors in weight order
func (f Factors) Values() [5]int {
	return [5]int{f.Alignment, f.Momentum, f.Crowd, f.Structure, f.Risk}
}

// QualityScore is the 0-10 score attached to a play together with its gate outcome
type QualityScore struct {
	Value      int     `json:"value"`
	Factors    Factors `json:"factors"`
	Catalyst   int     `json:"catalyst"`
	BaseGate   int     `json:"base_gate"`
	Gate       int     `json:"gate"`
	BelowGate  bool    `json:"below_gate"`
	Denied     bool    `json:"denied"`
	GateDetail string  `json:"gate_detail"`
}

// Sendable reports whether the play passed its adjusted gate
func (q QualityScore) Sendable() bool {
	return !q.Denied && !q.BelowGate
}

// LeverageRange is the suggested leverage band
type LeverageRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Play is a candidate trade signal
type Play struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Direction     Direction     `json:"direction"`
	EntryZone     Range         `json:"entry_zone"`
	Stop          float64       `json:"stop"`
	Targets       []float64     `json:"targets"`
	RefLevel      float64       `json:"ref_level"` // structural level the play keys off
	LeverageRange LeverageRange `json:"leverage_range"`
	Reasons       []string      `json:"reasons,omitempty"`
	Quality       QualityScore  `json:"quality"`
}
