package model

import "time"

// PeriodLength is the size of one aggregated oscillator block in calendar days
const PeriodLength = 7

// DaysBetween counts whole calendar days from a to b, ignoring time of day and zone offsets
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// PeriodIndex returns the 7-day block that date falls into, counted from anchor
func PeriodIndex(anchor, date time.Time) int {
	days := DaysBetween(anchor, date)
	if days < 0 {
		return -1 - (-days-1)/PeriodLength
	}
	return days / PeriodLength
}
