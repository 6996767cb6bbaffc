package technical

import (
	"math"
	"time"

	"github.com/Alias1177/SignalDesk/models"
)

// ComputeVWAP builds VWAP bands from bars opening at or after since, using
// price = (open+high+low+close)/4. With no traded volume the band collapses onto the
// latest known trade price: the last bar close in the window, else fallbackPrice.
func ComputeVWAP(bars []models.Bar, since time.Time, fallbackPrice float64) models.VwapBand {
	var sumV, sumPV, sumP2V float64
	last := fallbackPrice

	for _, b := range bars {
		if b.OpenTime.Before(since) {
			continue
		}
		price := (b.Open + b.High + b.Low + b.Close) / 4
		sumV += b.Volume
		sumPV += price * b.Volume
		sumP2V += price * price * b.Volume
		last = b.Close
	}

	if sumV == 0 {
		return bandsAround(since, last, 0)
	}

	vwap := sumPV / sumV
	variance := math.Max(sumP2V/sumV-vwap*vwap, 0)
	return bandsAround(since, vwap, math.Sqrt(variance))
}

// SessionVWAP anchors at local midnight UTC of now
func SessionVWAP(bars []models.Bar, now time.Time, fallbackPrice float64) models.VwapBand {
	return ComputeVWAP(bars, models.SessionStart(now), fallbackPrice)
}

// WeeklyVWAP anchors at Monday 00:00 UTC of the week containing now
func WeeklyVWAP(bars []models.Bar, now time.Time, fallbackPrice float64) models.VwapBand {
	return ComputeVWAP(bars, models.WeekStart(now), fallbackPrice)
}

func bandsAround(anchor time.Time, vwap, sigma float64) models.VwapBand {
	band := models.VwapBand{
		Anchor:  anchor,
		VWAP:    vwap,
		Sigma:   sigma,
		Upper1:  vwap + sigma,
		Upper15: vwap + 1.5*sigma,
		Upper2:  vwap + 2*sigma,
		Lower1:  vwap - sigma,
		Lower15: vwap - 1.5*sigma,
		Lower2:  vwap - 2*sigma,
	}
	if vwap != 0 {
		band.BandWidthPct = (band.Upper1 - band.Lower1) / vwap * 100
	}
	return band
}
