package calculate

import "github.com/Alias1177/SignalDesk/models"

const relVolumePeriod = 20

// RelativeVolume divides the last volume by the average of the previous 20 volumes
func RelativeVolume(volumes []float64) float64 {
	if len(volumes) < relVolumePeriod+1 {
		return 0
	}
	prev := volumes[len(volumes)-relVolumePeriod-1 : len(volumes)-1]
	avg := Average(prev)
	if avg == 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}

// BarRelativeVolume returns the relative volume of the last bar and its level
func BarRelativeVolume(bars []models.Bar) (float64, models.RelVolumeLevel) {
	ratio := RelativeVolume(Volumes(bars))
	return ratio, ClassifyRelativeVolume(ratio)
}

// ClassifyRelativeVolume buckets a relative volume ratio
func ClassifyRelativeVolume(ratio float64) models.RelVolumeLevel {
	switch {
	case ratio >= 2.5:
		return models.RelVolumeVeryHigh
	case ratio >= 1.5:
		return models.RelVolumeHigh
	case ratio > 0 && ratio < 0.7:
		return models.RelVolumeLow
	}
	return models.RelVolumeNormal
}
