package technical

import (
	"math"

	"github.com/Alias1177/SignalDesk/models"
)

// BuildVolumeProfile accumulates volume per typical-price bucket over a closed bar window.
// The point of control is the first bucket, in insertion order, holding the maximum volume.
// Returns nil for an empty window.
func BuildVolumeProfile(bars []models.Bar, bucketWidth float64) *models.VolumeProfile {
	if len(bars) == 0 {
		return nil
	}
	if bucketWidth <= 0 {
		bucketWidth = 1
	}

	profile := &models.VolumeProfile{BucketWidth: bucketWidth}
	index := make(map[float64]int)

	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		level := math.Round(typical/bucketWidth) * bucketWidth

		if i, ok := index[level]; ok {
			profile.Buckets[i].Volume += b.Volume
			continue
		}
		index[level] = len(profile.Buckets)
		profile.Buckets = append(profile.Buckets, models.VolumeBucket{Price: level, Volume: b.Volume})
	}

	best := -1.0
	for _, bucket := range profile.Buckets {
		if bucket.Volume > best {
			best = bucket.Volume
			profile.PointOfControl = bucket.Price
		}
	}

	return profile
}
