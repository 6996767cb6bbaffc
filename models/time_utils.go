package models

import "time"

// Duration returns the bar length of a timeframe
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF15m:
		return 15 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	case TF1w:
		return 7 * 24 * time.Hour
	}
	return 0
}

// ClosedBars drops trailing bars that are still forming at asOf
func ClosedBars(bars []Bar, tf Timeframe, asOf time.Time) []Bar {
	d := tf.Duration()
	n := len(bars)
	for n > 0 && bars[n-1].OpenTime.Add(d).After(asOf) {
		n--
	}
	return bars[:n]
}

// BarsForDays estimates how many bars of a timeframe cover the given days, with a buffer
func BarsForDays(tf Timeframe, days int) int {
	d := tf.Duration()
	if d == 0 || days <= 0 {
		return 0
	}
	n := int(float64(days) * float64(24*time.Hour) / float64(d) * 1.1)
	if n < 1 {
		n = 1
	}
	return n
}

// SessionStart returns local midnight UTC of t
func SessionStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns Monday 00:00 UTC of the week containing t
func WeekStart(t time.Time) time.Time {
	day := SessionStart(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
